package collection

import "github.com/kailas-cloud/ragdex/internal/domain"

// Key layout:
//
//	ragdex:meta:{name}       collection metadata hash
//	ragdex:idx:{name}        FT index over the collection's records
//	ragdex:rec:{name}:{id}   one hash per record

// MetaKey returns the metadata hash key.
func MetaKey(name string) string { return domain.KeyPrefix + "meta:" + name }

// IndexName returns the FT index name.
func IndexName(name string) string { return domain.KeyPrefix + "idx:" + name }

// RecordPrefix returns the key prefix shared by the collection's records.
func RecordPrefix(name string) string { return domain.KeyPrefix + "rec:" + name + ":" }

// RecordKey returns the hash key of one record.
func RecordKey(name, id string) string { return RecordPrefix(name) + id }
