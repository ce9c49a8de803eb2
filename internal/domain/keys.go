package domain

// KeyPrefix namespaces every key ragdex writes to a shared key-value store.
const KeyPrefix = "ragdex:"
