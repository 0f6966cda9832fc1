package domain

import "time"

type NoteID string
type ContactID string
type UserID string

type Timestamp = time.Time
