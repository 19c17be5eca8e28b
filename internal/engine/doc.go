// Package engine adapts inference runtimes to the session ports.
//
// Build tags and runtimes:
//
//   - In-process TensorFlow Lite (standard):
//     Uses github.com/mattn/go-tflite. Enabled with `-tags=tflite`.
//     Files: tflite.go, tflite_cgo.go (linker rpath hints).
//     A no-CGO stub exists when the tag is not set: tflite_stub.go. The stub
//     reports session.ErrDependencyUnavailable instead of faking results.
//
//   - Capability detection: DeviceDetector checks accelerator device nodes and is
//     available in every build.
package engine
