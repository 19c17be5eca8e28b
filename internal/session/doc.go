// Package session provides the inference session controller: capability
// detection, runtime initialization, model acquisition, engine lifecycle and
// prediction for a single one-input/one-output model. It is structured into
// small files by concern:
//
//   - controller.go: Controller type, constructor, getters and snapshots.
//   - config.go: Config, Handlers and package defaults.
//   - ports.go: interfaces of the external collaborators (capability detector,
//     runtime, model source, asset loader, engine factory, engine).
//   - artifact.go: the model artifact variant (buffer or file).
//   - setup.go: the setup pipeline as an explicit state machine of stages.
//   - acquire.go: model acquisition and engine installation (release-then-replace).
//   - predict.go: Predict and Infer.
//   - close.go: Close and Reload.
//   - errors.go: error kinds and predicates.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go, status_report.go: Prometheus metrics and status projection.
//
// Concurrency: the engine handle is guarded by a RWMutex. Predict holds the read
// lock across the engine call; Close and engine replacement take the write lock,
// so no caller ever runs a handle that has begun release. Model acquisition is
// serialized so setup and Reload never interleave.
package session
