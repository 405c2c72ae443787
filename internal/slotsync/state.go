package slotsync

import "fmt"

// EditorState is where the runner is in opening the editor of a slot.
//
//	Searching -> Found -> Opened -> VerifiedCorrect
//	                             -> VerifiedWrong -> Searching
type EditorState int

const (
	StateSearching EditorState = iota
	StateFound
	StateOpened
	StateVerifiedCorrect
	StateVerifiedWrong
)

func (s EditorState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateOpened:
		return "opened"
	case StateVerifiedCorrect:
		return "verified_correct"
	case StateVerifiedWrong:
		return "verified_wrong"
	}
	return fmt.Sprintf("EditorState(%d)", int(s))
}
