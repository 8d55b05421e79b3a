/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2019 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

package protocols

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind discriminates the reasons a dialogue operation can be rejected.
// Callers that need to react differently to different failures should
// compare against these, not against the error's message text.
type ErrorKind int

const (
	// KindAlreadySet: a one-shot setter (SetSender/SetTo) was invoked twice.
	KindAlreadySet ErrorKind = iota
	// KindNotBelonging: the message's derived label matches neither the
	// dialogue's label nor its incomplete version.
	KindNotBelonging
	// KindInvalidStarterRef: the message's starter reference does not match
	// the dialogue's.
	KindInvalidStarterRef
	// KindInvalidMessageId: the message id does not match the expected next
	// id for its direction.
	KindInvalidMessageId
	// KindInvalidTarget: the message's target fails basic or relational
	// validation (zero/non-zero, out of range, unknown). A target whose
	// performative does not admit this reply is KindInvalidPerformative.
	KindInvalidTarget
	// KindInvalidPerformative: the performative is not allowed in context
	// (not an initial performative, or not a valid reply).
	KindInvalidPerformative
	// KindNoSuchTarget: Reply was given a target id with no corresponding
	// stored message.
	KindNoSuchTarget
	// KindInconsistent: Reply was given both a target id and a target
	// message whose ids disagree.
	KindInconsistent
	// KindEmptyDialogue: Reply was invoked on a dialogue with no messages.
	KindEmptyDialogue
	// KindClosedDialogue: Update was invoked on a dialogue already in a
	// terminal state.
	KindClosedDialogue
	// KindCannotRelabel: both the current and incoming responder reference
	// are unassigned, so there is nothing to complete.
	KindCannotRelabel
	// KindPreassignedResponder: createSelfInitiated/createOpponentInitiated
	// was called with a reference that already carries a responder ref.
	KindPreassignedResponder
	// KindDuplicateLabel: an attempt to create a dialogue whose label (or
	// incomplete label) is already present in storage.
	KindDuplicateLabel
)

var errorKindNames = map[ErrorKind]string{
	KindAlreadySet:           "AlreadySet",
	KindNotBelonging:         "NotBelonging",
	KindInvalidStarterRef:    "InvalidStarterRef",
	KindInvalidMessageId:     "InvalidMessageId",
	KindInvalidTarget:        "InvalidTarget",
	KindInvalidPerformative:  "InvalidPerformative",
	KindNoSuchTarget:         "NoSuchTarget",
	KindInconsistent:         "Inconsistent",
	KindEmptyDialogue:        "EmptyDialogue",
	KindClosedDialogue:       "ClosedDialogue",
	KindCannotRelabel:        "CannotRelabel",
	KindPreassignedResponder: "PreassignedResponder",
	KindDuplicateLabel:       "DuplicateLabel",
}

func (kind ErrorKind) String() string {
	if name, ok := errorKindNames[kind]; ok {
		return name
	}
	return "Unknown"
}

// DialogueError is the single error type returned across the protocols
// package boundary. Every rejection carries a Kind a caller can switch on
// instead of matching message text.
type DialogueError struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (err *DialogueError) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", err.Kind, err.Msg, err.Cause)
	}
	return fmt.Sprintf("%s: %s", err.Kind, err.Msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (err *DialogueError) Unwrap() error {
	return err.Cause
}

func newDialogueError(kind ErrorKind, format string, args ...interface{}) *DialogueError {
	return &DialogueError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapDialogueError(kind ErrorKind, cause error, format string, args ...interface{}) *DialogueError {
	return &DialogueError{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Cause: errors.WithStack(cause),
	}
}

// IsErrorKind reports whether err is a *DialogueError of the given kind,
// unwrapping as needed.
func IsErrorKind(err error, kind ErrorKind) bool {
	var dialogueErr *DialogueError
	if stderrors.As(err, &dialogueErr) {
		return dialogueErr.Kind == kind
	}
	return false
}
