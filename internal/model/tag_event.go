package model

import "time"

// TagEvent is the immutable audit record of one committed tag. Created only
// by the tag service; never mutated afterwards.
type TagEvent struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	TaggerID  string    `json:"taggerId" bson:"taggerId"`
	TaggedID  string    `json:"taggedId" bson:"taggedId"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	// HeldItMs is how long the tagger had been IT when the tag landed;
	// nil when the tagger's becameItAt was never recorded.
	HeldItMs *int64 `json:"heldItMs,omitempty" bson:"heldItMs,omitempty"`
	// TaggedLocation snapshots where the tagged player was at tag time.
	TaggedLocation *LatLng `json:"taggedLocation,omitempty" bson:"taggedLocation,omitempty"`
}
