package controller

import (
	"time"

	"github.com/loog-project/rulist/internal/user"
)

type manyFetchedMsg struct {
	op         Op
	generation uint64
	records    []user.Record
	err        error
	at         time.Time
}

type oneFetchedMsg struct {
	record user.Record
	err    error
	at     time.Time
}

type feedbackExpiredMsg struct {
	generation uint64
}

type recordedMsg struct {
	op  Op
	err error
}
