//go:build tflite

package engine

// cgo link directives for the in-process TensorFlow Lite adapter.
// - We set an rpath of $ORIGIN so the runtime loader finds libtensorflowlite_c.so
//   in the same directory as the built Go binary (./bin).
// - We add -L${SRCDIR}/../../bin so the linker finds it at link time.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin
*/
import "C"
