/*
Package ports defines the driven ports (interfaces) of the survey runner.

These interfaces decouple the navigation core from external implementations,
allowing the engine to work with various configuration sources, session
stores and submission backends.

# Key Interfaces

  - ConfigLoader: Loads survey configuration records (file, web app, memory).
  - StateStore: Persists and loads session State.
  - SubmissionSink: Receives the final response set of a session.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
