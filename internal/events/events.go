// Package events defines the sensor event payloads shared by the consumer and simulator.
package events

import "time"

// Event type header values.
const (
	TypeActivityRecorded = "activity.recorded"
	TypeRoomEntered      = "room.entered"
)

// Kafka topics the sensor pipeline publishes to.
const (
	TopicActivity = "cat_activity_events"
	TopicMovement = "cat_movement_events"
)

// ActivityRecorded is emitted when the vision pipeline closes out one
// eat/excrete/sleep episode for a cat.
type ActivityRecorded struct {
	EventID         string     `json:"event_id"`
	CatName         string     `json:"cat_name"`
	ActivityType    string     `json:"activity_type"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

// RoomEntered is emitted when a cat is detected entering a room. It closes
// the cat's previous open movement interval.
type RoomEntered struct {
	EventID   string    `json:"event_id"`
	CatName   string    `json:"cat_name"`
	RoomName  string    `json:"room_name"`
	EnterTime time.Time `json:"enter_time"`
}
