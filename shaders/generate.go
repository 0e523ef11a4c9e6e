// Package shaders holds the GLSL sources for the renderer. Run go generate
// with glslc on the PATH to produce vert.spv and frag.spv next to them.
package shaders

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv
