package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/cgame/renderer/render"
)

// Loader is the Vulkan global driver.
type Loader struct {
	driver core1_0.GlobalDriver
}

// NewLoader builds a loader from a vkGetInstanceProcAddr pointer, such as
// the one SDL exposes.
func NewLoader(procAddr unsafe.Pointer) (*Loader, error) {
	driver, err := core.CreateDriverFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "create vulkan driver")
	}
	return &Loader{driver: driver}, nil
}

func (l *Loader) AvailableExtensions() (map[string]struct{}, error) {
	extensions, _, err := l.driver.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}

	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (l *Loader) AvailableLayers() (map[string]struct{}, error) {
	layers, _, err := l.driver.AvailableLayers()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance layers")
	}

	names := make(map[string]struct{}, len(layers))
	for name := range layers {
		names[name] = struct{}{}
	}
	return names, nil
}

func (l *Loader) CreateInstance(options render.InstanceOptions) (render.Instance, error) {
	createInfo := core1_0.InstanceCreateInfo{
		ApplicationName:       options.ApplicationName,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            "No Engine",
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_2,
		EnabledExtensionNames: options.Extensions,
		EnabledLayerNames:     options.Layers,
	}

	if options.EnumeratePortability {
		createInfo.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	// Chained so instance creation and destruction are covered by validation
	// too.
	if options.DebugCallback != nil {
		createInfo.Next = debugMessengerCreateInfo(options.DebugCallback)
	}

	driver, _, err := l.driver.CreateInstance(nil, createInfo)
	if err != nil {
		return nil, err
	}

	return &Instance{
		driver:  driver,
		surface: khr_surface.CreateExtensionDriverFromCoreDriver(driver),
	}, nil
}

// Instance wraps a Vulkan instance together with the instance-level
// extension drivers the renderer needs.
type Instance struct {
	driver  core1_0.CoreInstanceDriver
	surface khr_surface.ExtensionDriver
	debug   ext_debug_utils.ExtensionDriver
}

func (i *Instance) Driver() core1_0.CoreInstanceDriver {
	return i.driver
}

func (i *Instance) SurfaceExtension() khr_surface.ExtensionDriver {
	return i.surface
}

func (i *Instance) PhysicalDevices() ([]render.PhysicalDevice, error) {
	physicalDevices, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]render.PhysicalDevice, 0, len(physicalDevices))
	for _, handle := range physicalDevices {
		devices = append(devices, &PhysicalDevice{instance: i, handle: handle})
	}
	return devices, nil
}

func (i *Instance) CreateDebugMessenger(callback func(render.DebugMessage)) (render.DebugMessenger, error) {
	if i.debug == nil {
		i.debug = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.driver)
	}

	messenger, _, err := i.debug.CreateDebugUtilsMessenger(nil, debugMessengerCreateInfo(callback))
	if err != nil {
		return nil, err
	}

	return newObject(messenger, func(m ext_debug_utils.DebugUtilsMessenger) {
		i.debug.DestroyDebugUtilsMessenger(m, nil)
	}), nil
}

func (i *Instance) Destroy() {
	i.driver.DestroyInstance(nil)
}

func debugMessengerCreateInfo(callback func(render.DebugMessage)) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			callback(render.DebugMessage{
				Severity: severity.String(),
				Type:     msgType.String(),
				Message:  data.Message,
				Error:    severity&ext_debug_utils.SeverityError != 0,
			})
			return false
		},
	}
}

// Surface is a presentation surface created from an Instance.
type Surface struct {
	instance *Instance
	handle   khr_surface.Surface
}

func NewSurface(instance *Instance, handle khr_surface.Surface) *Surface {
	return &Surface{instance: instance, handle: handle}
}

func (s *Surface) Destroy() {
	s.instance.surface.DestroySurface(s.handle, nil)
}

func surfaceHandle(surface render.Surface) (khr_surface.Surface, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return khr_surface.Surface{}, errors.AssertionFailedf("vkng: unexpected surface type %T", surface)
	}
	return s.handle, nil
}
