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
	"testing"

	"gotest.tools/assert"
)

// newSelfInitiatedDialogue builds a fresh Dialogue in which senderAddress is
// the starter and counterPartyAddress is the opponent.
func newSelfInitiatedDialogue() *Dialogue {
	label := NewDialogueLabel(
		NewDialogueReference(starterReference, UnassignedDialogueReference),
		counterPartyAddress,
		senderAddress,
	)
	return NewDialogue(label, senderAddress, Role1, testRules())
}

func newOutgoingMessage(ref DialogueReference, id, target MessageId, performative Performative) ProtocolMessageInterface {
	message := NewMessage(ref, id, target, performative, nil)
	_ = message.SetSender(senderAddress)
	_ = message.SetTo(counterPartyAddress)
	return message
}

func newIncomingMessage(ref DialogueReference, id, target MessageId, performative Performative) ProtocolMessageInterface {
	message := NewMessage(ref, id, target, performative, nil)
	_ = message.SetSender(counterPartyAddress)
	_ = message.SetTo(senderAddress)
	return message
}

// buildHandshake drives a self-initiated dialogue through cfp / propose /
// accept, leaving it open (not yet terminal), and returns it alongside its
// reference for building further messages.
func buildHandshake(t *testing.T) (*Dialogue, DialogueReference) {
	t.Helper()
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()

	cfp := newOutgoingMessage(ref, StartingMessageId, StartingTarget, performativeCfp)
	assert.NilError(t, dialogue.Update(cfp))

	propose := newIncomingMessage(ref, -1, 1, performativePropose)
	assert.NilError(t, dialogue.Update(propose))

	accept := newOutgoingMessage(ref, 2, -1, performativeAccept)
	assert.NilError(t, dialogue.Update(accept))

	return dialogue, ref
}

func TestDialogueIsEmptyInitially(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	assert.Assert(t, dialogue.IsEmpty())
	assert.Assert(t, !dialogue.IsTerminal())
	assert.Assert(t, dialogue.LastMessage() == nil)
}

func TestUpdateAppendsInitialMessage(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()
	cfp := newOutgoingMessage(ref, StartingMessageId, StartingTarget, performativeCfp)

	assert.NilError(t, dialogue.Update(cfp))
	assert.Assert(t, !dialogue.IsEmpty())
	assert.Equal(t, dialogue.LastMessage(), cfp)
	assert.Equal(t, len(dialogue.History()), 1)
}

func TestUpdateRejectsWrongStarterReference(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	wrongRef := NewDialogueReference("not-the-starter-reference", UnassignedDialogueReference)
	cfp := newOutgoingMessage(wrongRef, StartingMessageId, StartingTarget, performativeCfp)

	err := dialogue.Update(cfp)
	assert.Assert(t, err != nil)
	assert.Assert(t, IsErrorKind(err, KindNotBelonging))
}

func TestUpdateRejectsWrongInitialMessageId(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()
	cfp := newOutgoingMessage(ref, 2, StartingTarget, performativeCfp)

	err := dialogue.Update(cfp)
	assert.Assert(t, IsErrorKind(err, KindInvalidMessageId))
}

func TestUpdateRejectsWrongInitialTarget(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()
	cfp := newOutgoingMessage(ref, StartingMessageId, 5, performativeCfp)

	err := dialogue.Update(cfp)
	assert.Assert(t, IsErrorKind(err, KindInvalidTarget))
}

func TestUpdateRejectsInvalidInitialPerformative(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()
	propose := newOutgoingMessage(ref, StartingMessageId, StartingTarget, performativePropose)

	err := dialogue.Update(propose)
	assert.Assert(t, IsErrorKind(err, KindInvalidPerformative))
}

func TestUpdateNonInitialMessageNumbering(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	assert.Equal(t, dialogue.LastMessage().MessageId(), MessageId(2))

	inform := newIncomingMessage(ref, -2, 2, performativeInform)
	assert.NilError(t, dialogue.Update(inform))
	assert.Equal(t, dialogue.LastMessage().MessageId(), MessageId(-2))
	assert.Equal(t, len(dialogue.History()), 4)
}

func TestValidateMessageTargetRejectsInvalidReply(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	// cfp is not a valid reply to accept.
	badReply := newIncomingMessage(ref, -2, 2, performativeCfp)

	err := dialogue.Update(badReply)
	assert.Assert(t, IsErrorKind(err, KindInvalidPerformative))
}

func TestValidateMessageTargetRejectsOutOfRangeTarget(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	badTarget := newIncomingMessage(ref, -2, 99, performativeInform)

	err := dialogue.Update(badTarget)
	assert.Assert(t, IsErrorKind(err, KindInvalidTarget))
}

func TestUpdateTerminalThenClosedDialogue(t *testing.T) {
	dialogue, ref := buildHandshake(t)

	end := newIncomingMessage(ref, -2, 2, performativeEnd)
	assert.NilError(t, dialogue.Update(end))
	assert.Assert(t, dialogue.IsTerminal())

	furtherMessage := newOutgoingMessage(ref, 3, -2, performativeInform)
	err := dialogue.Update(furtherMessage)
	assert.Assert(t, err != nil)
	assert.Assert(t, IsErrorKind(err, KindClosedDialogue))
}

func TestTerminalStateCallbackFiresOnce(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	calls := 0
	dialogue.AddTerminalStateCallback(func(*Dialogue) { calls++ })

	end := newIncomingMessage(ref, -2, 2, performativeEnd)
	assert.NilError(t, dialogue.Update(end))
	assert.Equal(t, calls, 1)

	// a second message against the now-closed dialogue must not fire the
	// callback again - it is rejected before ever reaching that point.
	_ = dialogue.Update(newOutgoingMessage(ref, 3, -2, performativeInform))
	assert.Equal(t, calls, 1)
}

func TestReplyDerivesTargetFromLastMessage(t *testing.T) {
	dialogue, _ := buildHandshake(t)
	reply, err := dialogue.Reply(performativeEnd, nil, nil, nil)
	assert.NilError(t, err)
	assert.Equal(t, reply.Target(), MessageId(2))
	assert.Equal(t, reply.MessageId(), MessageId(3))
	assert.Assert(t, dialogue.IsTerminal())
}

func TestReplyWithExplicitTargetId(t *testing.T) {
	dialogue, _ := buildHandshake(t)
	targetID := MessageId(-1) // the propose message
	reply, err := dialogue.Reply(performativeDecline, nil, &targetID, nil)
	assert.NilError(t, err)
	assert.Equal(t, reply.Target(), targetID)
}

func TestReplyRejectsNoSuchTarget(t *testing.T) {
	dialogue, _ := buildHandshake(t)
	badTarget := MessageId(99)
	_, err := dialogue.Reply(performativeEnd, nil, &badTarget, nil)
	assert.Assert(t, IsErrorKind(err, KindNoSuchTarget))
}

func TestReplyRejectsInconsistentTargetMessageAndId(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	targetMessage := newIncomingMessage(ref, -1, 1, performativePropose)
	mismatchedID := MessageId(2)

	_, err := dialogue.Reply(performativeEnd, targetMessage, &mismatchedID, nil)
	assert.Assert(t, IsErrorKind(err, KindInconsistent))
}

func TestReplyOnEmptyDialogueFails(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	_, err := dialogue.Reply(performativeCfp, nil, nil, nil)
	assert.Assert(t, IsErrorKind(err, KindEmptyDialogue))
}

func TestSnapshotReflectsState(t *testing.T) {
	dialogue, ref := buildHandshake(t)
	snapshot := dialogue.Snapshot()
	assert.Equal(t, snapshot.Label, dialogue.DialogueLabel())
	assert.Equal(t, snapshot.MessageCount, 3)
	assert.Assert(t, !snapshot.Terminal)

	end := newIncomingMessage(ref, -2, 2, performativeEnd)
	assert.NilError(t, dialogue.Update(end))
	assert.Assert(t, dialogue.Snapshot().Terminal)
}

func TestCustomValidatorRunsAfterBasicChecks(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	ref := dialogue.DialogueLabel().DialogueReference()
	dialogue.SetCustomValidator(func(d *Dialogue, m ProtocolMessageInterface) error {
		if _, ok := m.GetField("query"); !ok {
			return newDialogueError(KindInvalidPerformative, "cfp requires a query field")
		}
		return nil
	})

	bare := newOutgoingMessage(ref, StartingMessageId, StartingTarget, performativeCfp)
	err := dialogue.Update(bare)
	assert.ErrorContains(t, err, "requires a query field")
	assert.Assert(t, dialogue.IsEmpty(), "a message failing custom validation must not be appended")

	withQuery := NewMessage(ref, StartingMessageId, StartingTarget, performativeCfp,
		map[string]Value{"query": StringValue("temperature")})
	_ = withQuery.SetSender(senderAddress)
	_ = withQuery.SetTo(counterPartyAddress)
	assert.NilError(t, dialogue.Update(withQuery))
}

func TestUpdateLabelFailsWithoutAssignedResponderReference(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	err := dialogue.UpdateLabel(dialogue.DialogueLabel())
	assert.Assert(t, IsErrorKind(err, KindCannotRelabel))
}

func TestUpdateLabelSucceedsWithAssignedResponderReference(t *testing.T) {
	dialogue := newSelfInitiatedDialogue()
	finalLabel := NewDialogueLabel(
		NewDialogueReference(starterReference, responderReference),
		counterPartyAddress,
		senderAddress,
	)
	assert.NilError(t, dialogue.UpdateLabel(finalLabel))
	assert.Equal(t, dialogue.DialogueLabel(), finalLabel)
}
