/*
Package ports defines the driven ports (interfaces) of TextRemind.

These interfaces decouple the form engine and the verification service from
concrete transports, stores and SMS providers.

# Key Interfaces

  - Transport: the form engine's only way to reach the backend.
  - VerificationStore: codes, verified numbers and password hashes.
  - MessageQueue: scheduled messages waiting for their delivery time.
  - SMSSender: delivers a text message.
  - DistributedLocker: coordinates dispatchers running on several replicas.
*/
package ports
