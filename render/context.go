package render

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
)

const (
	debugUtilsExtension             = "VK_EXT_debug_utils"
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	portabilitySubsetExtension      = "VK_KHR_portability_subset"
)

type QueueFamilyIndices struct {
	Graphics *int
	Present  *int
}

func (i QueueFamilyIndices) IsComplete() bool {
	return i.Graphics != nil && i.Present != nil
}

// Shared reports whether graphics and present use the same family.
func (i QueueFamilyIndices) Shared() bool {
	return i.IsComplete() && *i.Graphics == *i.Present
}

// Unique returns the distinct family indices, graphics first.
func (i QueueFamilyIndices) Unique() []int {
	families := []int{*i.Graphics}
	if *i.Present != *i.Graphics {
		families = append(families, *i.Present)
	}
	return families
}

// SurfaceSupport is what a physical device can do with a particular surface.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

func QuerySurfaceSupport(device PhysicalDevice, surface Surface) (SurfaceSupport, error) {
	var support SurfaceSupport
	var err error

	support.Capabilities, err = device.SurfaceCapabilities(surface)
	if err != nil {
		return support, errors.Wrap(err, "surface capabilities")
	}

	support.Formats, err = device.SurfaceFormats(surface)
	if err != nil {
		return support, errors.Wrap(err, "surface formats")
	}

	support.PresentModes, err = device.PresentModes(surface)
	if err != nil {
		return support, errors.Wrap(err, "present modes")
	}
	return support, nil
}

// GraphicsContext is the instance, device and queues everything else is
// created from.
type GraphicsContext struct {
	Instance       Instance
	DebugMessenger DebugMessenger
	Surface        Surface
	PhysicalDevice PhysicalDevice
	Device         Device
	GraphicsQueue  Queue
	PresentQueue   Queue
	QueueFamilies  QueueFamilyIndices

	teardown teardownStack
}

// CreateContext bootstraps Vulkan for window. On failure everything created so
// far is destroyed before the error is returned.
func CreateContext(loader Loader, window Window, cfg RenderConfig) (*GraphicsContext, error) {
	logger := cfg.logger()
	ctx := &GraphicsContext{}
	ctx.teardown.logger = logger

	err := ctx.createInstance(loader, window, cfg, logger)
	if err == nil {
		err = ctx.createSurface(window)
	}
	if err == nil {
		err = ctx.pickPhysicalDevice(cfg.DeviceExtensions, logger)
	}
	if err == nil {
		err = ctx.createLogicalDevice(cfg.DeviceExtensions)
	}
	if err != nil {
		ctx.teardown.unwind()
		return nil, err
	}
	return ctx, nil
}

// Destroy releases the device, surface, messenger and instance in that order.
// Every object created from the device must already be gone.
func (ctx *GraphicsContext) Destroy() {
	ctx.teardown.unwind()
}

func (ctx *GraphicsContext) createInstance(loader Loader, window Window, cfg RenderConfig, logger *slog.Logger) error {
	options := InstanceOptions{
		ApplicationName: cfg.ApplicationName,
	}

	windowExtensions, err := window.RequiredInstanceExtensions()
	if err != nil {
		return Classify(errors.Wrap(err, "createinstance: window extensions"), ErrExtensionQuery)
	}

	available, err := loader.AvailableExtensions()
	if err != nil {
		return Classify(errors.Wrap(err, "createinstance: available extensions"), ErrExtensionQuery)
	}

	for _, ext := range windowExtensions {
		if _, ok := available[ext]; !ok {
			return errors.Wrapf(ErrExtensionQuery, "createinstance: missing extension %s", ext)
		}
		options.Extensions = append(options.Extensions, ext)
	}

	if cfg.EnableValidation {
		options.Extensions = append(options.Extensions, debugUtilsExtension)
	}

	if _, ok := available[portabilityEnumerationExtension]; ok {
		options.Extensions = append(options.Extensions, portabilityEnumerationExtension)
		options.EnumeratePortability = true
	}

	if cfg.EnableValidation {
		layers, err := loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "createinstance: available layers")
		}

		for _, layer := range cfg.ValidationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Wrapf(ErrValidationLayerUnsupported, "createinstance: layer %s not available", layer)
			}
			options.Layers = append(options.Layers, layer)
		}

		options.DebugCallback = debugLogger(logger)
	}

	instance, err := loader.CreateInstance(options)
	if err != nil {
		return errors.Wrap(err, "createinstance")
	}
	ctx.Instance = instance
	ctx.teardown.push("instance", instance.Destroy)

	if cfg.EnableValidation {
		messenger, err := instance.CreateDebugMessenger(debugLogger(logger))
		if err != nil {
			return errors.Wrap(err, "create debug messenger")
		}
		ctx.DebugMessenger = messenger
		ctx.teardown.push("debug messenger", messenger.Destroy)
	}

	return nil
}

func debugLogger(logger *slog.Logger) func(DebugMessage) {
	return func(msg DebugMessage) {
		if msg.Error {
			logger.Error("validation", "type", msg.Type, "severity", msg.Severity, "message", msg.Message)
			return
		}
		logger.Warn("validation", "type", msg.Type, "severity", msg.Severity, "message", msg.Message)
	}
}

func (ctx *GraphicsContext) createSurface(window Window) error {
	surface, err := window.CreateSurface(ctx.Instance)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}
	ctx.Surface = surface
	ctx.teardown.push("surface", surface.Destroy)
	return nil
}

func (ctx *GraphicsContext) pickPhysicalDevice(required []string, logger *slog.Logger) error {
	devices, err := ctx.Instance.PhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range devices {
		report := InspectDevice(device, ctx.Surface, required)
		if !report.Suitable() {
			logger.Debug("physical device rejected", "device", report.Name, "reason", report.Reason)
			continue
		}

		ctx.PhysicalDevice = device
		ctx.QueueFamilies = report.QueueFamilies
		logger.Info("selected physical device",
			"device", report.Name,
			"graphicsFamily", *report.QueueFamilies.Graphics,
			"presentFamily", *report.QueueFamilies.Present)
		return nil
	}

	return errors.Wrapf(ErrNoSuitableDevice, "checked %d devices", len(devices))
}

// DeviceReport is what InspectDevice found out about one physical device.
type DeviceReport struct {
	Name          string
	QueueFamilies QueueFamilyIndices
	Support       SurfaceSupport

	// Reason is empty when the device can render to the surface.
	Reason string
}

func (r DeviceReport) Suitable() bool {
	return r.Reason == ""
}

// InspectDevice checks device against surface: queue families, the required
// extensions, and at least one surface format and present mode.
func InspectDevice(device PhysicalDevice, surface Surface, required []string) DeviceReport {
	report := DeviceReport{Name: device.Name()}

	indices, err := FindQueueFamilies(device, surface)
	report.QueueFamilies = indices
	switch {
	case err != nil:
		report.Reason = err.Error()
		return report
	case indices.Graphics == nil:
		report.Reason = "no graphics queue family"
		return report
	case indices.Present == nil:
		report.Reason = "no queue family can present to the surface"
		return report
	}

	if missing, err := missingExtensions(device, required); err != nil {
		report.Reason = err.Error()
		return report
	} else if len(missing) > 0 {
		report.Reason = fmt.Sprintf("missing extensions %v", missing)
		return report
	}

	report.Support, err = QuerySurfaceSupport(device, surface)
	switch {
	case err != nil:
		report.Reason = err.Error()
	case len(report.Support.Formats) == 0:
		report.Reason = "no surface formats"
	case len(report.Support.PresentModes) == 0:
		report.Reason = "no present modes"
	}
	return report
}

func missingExtensions(device PhysicalDevice, required []string) ([]string, error) {
	extensions, err := device.Extensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	var missing []string
	for _, extension := range required {
		if _, ok := extensions[extension]; !ok {
			missing = append(missing, extension)
		}
	}
	return missing, nil
}

// ListDevices creates a throwaway instance and surface for window and reports
// on every physical device, suitable or not.
func ListDevices(loader Loader, window Window, cfg RenderConfig) ([]DeviceReport, error) {
	logger := cfg.logger()
	ctx := &GraphicsContext{}
	ctx.teardown.logger = logger
	defer ctx.teardown.unwind()

	err := ctx.createInstance(loader, window, cfg, logger)
	if err == nil {
		err = ctx.createSurface(window)
	}
	if err != nil {
		return nil, err
	}

	devices, err := ctx.Instance.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	reports := make([]DeviceReport, 0, len(devices))
	for _, device := range devices {
		reports = append(reports, InspectDevice(device, ctx.Surface, cfg.DeviceExtensions))
	}
	return reports, nil
}

// FindQueueFamilies locates a graphics family and a present family for
// surface, preferring a single family that can do both.
func FindQueueFamilies(device PhysicalDevice, surface Surface) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for familyIdx, family := range device.QueueFamilies() {
		supported, err := device.SurfaceSupport(surface, familyIdx)
		if err != nil {
			return indices, errors.Wrapf(err, "surface support for family %d", familyIdx)
		}

		if family.Graphics && supported {
			idx := familyIdx
			return QueueFamilyIndices{Graphics: &idx, Present: &idx}, nil
		}

		if family.Graphics && indices.Graphics == nil {
			indices.Graphics = new(int)
			*indices.Graphics = familyIdx
		}

		if supported && indices.Present == nil {
			indices.Present = new(int)
			*indices.Present = familyIdx
		}
	}

	return indices, nil
}

func (ctx *GraphicsContext) createLogicalDevice(required []string) error {
	extensionNames := append([]string{}, required...)

	// Needed to run on portability implementations such as MoltenVK.
	extensions, err := ctx.PhysicalDevice.Extensions()
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}
	if _, ok := extensions[portabilitySubsetExtension]; ok {
		extensionNames = append(extensionNames, portabilitySubsetExtension)
	}

	device, err := ctx.PhysicalDevice.CreateDevice(DeviceOptions{
		QueueFamilies: ctx.QueueFamilies.Unique(),
		Extensions:    extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}
	ctx.Device = device
	ctx.teardown.push("device", device.Destroy)

	ctx.GraphicsQueue = device.Queue(*ctx.QueueFamilies.Graphics)
	ctx.PresentQueue = device.Queue(*ctx.QueueFamilies.Present)
	return nil
}
