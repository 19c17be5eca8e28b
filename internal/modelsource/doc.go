// Package modelsource acquires model artifacts: remote downloads cached on
// disk (GCS or plain HTTP backends) and bundled assets mapped into memory.
package modelsource
