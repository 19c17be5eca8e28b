package engine

// Built reports whether the TensorFlow Lite runtime was compiled into this binary.
func Built() bool { return tfliteBuilt }
