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

type Role string

const (
	Role1 Role = "role1"
	Role2 Role = "role2"

	StartingMessageId            MessageId = 1
	StartingTarget                MessageId = 0
	UnassignedDialogueReference             = ""
	DialogueLabelStringSeparator            = "_"
)

/* Utility functions */

func max(list []MessageId) MessageId {
	result := list[0]
	for i := 1; i < len(list); i++ {
		if result < list[i] {
			result = list[i]
		}
	}
	return result
}

func abs(id MessageId) MessageId {
	if id < 0 {
		return -id
	}
	return id
}

// DialogueSnapshot is an export-only view of a Dialogue's state, intended
// for an enclosing system to persist or log; the engine itself never reads
// one back.
type DialogueSnapshot struct {
	Label         DialogueLabel `json:"label"`
	Role          Role          `json:"role"`
	LastMessageId MessageId     `json:"last_message_id"`
	MessageCount  int           `json:"message_count"`
	Terminal      bool          `json:"terminal"`
}

// Dialogue is the per-conversation state machine: it owns the message
// history for one (self, opponent, reference) conversation and enforces
// numbering, targeting, and performative rules on every append.
type Dialogue struct {
	dialogueLabel          DialogueLabel              // the label for this dialogue
	role                   Role                       // the role of the agent this dialogue is maintained for
	selfAddress            Address                    // the address of the entity for whom this dialogue is maintained
	outgoingMessages       []ProtocolMessageInterface // messages sent by self, in order
	incomingMessages       []ProtocolMessageInterface // messages received from the opponent, in order
	lastMessageId          MessageId                  // the message id of the most recently appended message
	orderedMessageIds      []MessageId                // all message ids in arrival order
	rules                  Rules                      // the rules for this dialogue
	terminal               bool                       // true once a terminal performative has been appended
	terminalStateCallbacks []func(*Dialogue)          // callbacks invoked once, when the dialogue becomes terminal
	customValidator        CustomValidatorFunc        // optional extra validation run after the basic checks
}

// CustomValidatorFunc is an extra validation step a protocol can install on
// a Dialogue; it runs on every Update after the basic checks pass.
type CustomValidatorFunc func(*Dialogue, ProtocolMessageInterface) error

// NewDialogue builds an empty Dialogue under the given label, self address,
// role, and rules.
func NewDialogue(label DialogueLabel, selfAddress Address, role Role, rules Rules) *Dialogue {
	return &Dialogue{
		dialogueLabel: label,
		role:          role,
		selfAddress:   selfAddress,
		rules:         rules,
	}
}

// DialogueLabel returns the dialogue label.
func (dialogue *Dialogue) DialogueLabel() DialogueLabel {
	return dialogue.dialogueLabel
}

// IncompleteDialogueLabel returns the incomplete version of the label.
func (dialogue *Dialogue) IncompleteDialogueLabel() DialogueLabel {
	return dialogue.dialogueLabel.IncompleteVersion()
}

// DialogueLabels returns both the current label and its incomplete version.
func (dialogue *Dialogue) DialogueLabels() [2]DialogueLabel {
	return [2]DialogueLabel{dialogue.dialogueLabel, dialogue.IncompleteDialogueLabel()}
}

// SelfAddress returns the address of the entity for whom this dialogue is
// maintained.
func (dialogue *Dialogue) SelfAddress() Address {
	return dialogue.selfAddress
}

// Role returns the agent's role in the dialogue.
func (dialogue *Dialogue) Role() Role {
	return dialogue.role
}

// Rules returns the dialogue's rules.
func (dialogue *Dialogue) Rules() Rules {
	return dialogue.rules
}

// AddTerminalStateCallback registers fn to run (in registration order) the
// first time the dialogue reaches a terminal state. Storage registers its
// own eviction/retention callback this way; other observers can too.
func (dialogue *Dialogue) AddTerminalStateCallback(fn func(*Dialogue)) {
	dialogue.terminalStateCallbacks = append(dialogue.terminalStateCallbacks, fn)
}

// IsSelfInitiated reports whether the agent started the dialogue.
func (dialogue *Dialogue) IsSelfInitiated() bool {
	return dialogue.dialogueLabel.dialogueStarterAddress != dialogue.dialogueLabel.dialogueOpponentAddress
}

// IsTerminal reports whether the dialogue has reached a terminal state.
func (dialogue *Dialogue) IsTerminal() bool {
	return dialogue.terminal
}

func (dialogue *Dialogue) LastIncomingMessage() ProtocolMessageInterface {
	if length := len(dialogue.incomingMessages); length > 0 {
		return dialogue.incomingMessages[length-1]
	}
	return nil
}

func (dialogue *Dialogue) LastOutgoingMessage() ProtocolMessageInterface {
	if length := len(dialogue.outgoingMessages); length > 0 {
		return dialogue.outgoingMessages[length-1]
	}
	return nil
}

func (dialogue *Dialogue) LastMessage() ProtocolMessageInterface {
	if dialogue.lastMessageId == 0 {
		return nil
	}
	lastIncomingMessage := dialogue.LastIncomingMessage()
	if lastIncomingMessage != nil && lastIncomingMessage.MessageId() == dialogue.lastMessageId {
		return lastIncomingMessage
	}
	return dialogue.LastOutgoingMessage()
}

// IsEmpty reports whether no message has been appended yet.
func (dialogue *Dialogue) IsEmpty() bool {
	return len(dialogue.outgoingMessages) == 0 && len(dialogue.incomingMessages) == 0
}

// History returns every appended message, interleaved in arrival order.
func (dialogue *Dialogue) History() []ProtocolMessageInterface {
	history := make([]ProtocolMessageInterface, 0, len(dialogue.orderedMessageIds))
	outgoingIdx, incomingIdx := 0, 0
	for _, id := range dialogue.orderedMessageIds {
		if (id > 0) == dialogue.IsSelfInitiated() {
			history = append(history, dialogue.outgoingMessages[outgoingIdx])
			outgoingIdx++
		} else {
			history = append(history, dialogue.incomingMessages[incomingIdx])
			incomingIdx++
		}
	}
	return history
}

// Snapshot captures the label, role, last message id, message count, and
// terminal flag, for an enclosing system to persist or log.
func (dialogue *Dialogue) Snapshot() DialogueSnapshot {
	return DialogueSnapshot{
		Label:         dialogue.dialogueLabel,
		Role:          dialogue.role,
		LastMessageId: dialogue.lastMessageId,
		MessageCount:  len(dialogue.orderedMessageIds),
		Terminal:      dialogue.terminal,
	}
}

// LastActivityMessageID returns the id of the most recently appended
// message, for an external staleness reaper to compare against over time.
func (dialogue *Dialogue) LastActivityMessageID() MessageId {
	return dialogue.lastMessageId
}

func (dialogue *Dialogue) counterPartyFromMessage(message ProtocolMessageInterface) Address {
	if dialogue.isMessageBySelf(message) {
		return message.To()
	}
	return message.Sender()
}

func (dialogue *Dialogue) isMessageBySelf(message ProtocolMessageInterface) bool {
	return message.Sender() == dialogue.selfAddress
}

func (dialogue *Dialogue) hasMessageId(messageId MessageId) bool {
	return dialogue.getMessageById(messageId) != nil
}

// Update appends message to the dialogue's history if it passes belonging
// and validation checks. A closed (terminal) dialogue rejects every further
// update, leaving its histories unchanged.
func (dialogue *Dialogue) Update(message ProtocolMessageInterface) error {
	if dialogue.terminal {
		return newDialogueError(KindClosedDialogue, "dialogue is already in a terminal state")
	}
	if !message.HasSender() {
		// safe to ignore: the above check establishes the precondition SetSender relies on
		_ = message.SetSender(dialogue.selfAddress)
	}
	if !dialogue.isBelongingToDialogue(message) {
		return newDialogueError(KindNotBelonging, "message does not belong to this dialogue")
	}
	if err := dialogue.validateNextMessage(message); err != nil {
		return err
	}

	if dialogue.isMessageBySelf(message) {
		dialogue.outgoingMessages = append(dialogue.outgoingMessages, message)
	} else {
		dialogue.incomingMessages = append(dialogue.incomingMessages, message)
	}
	dialogue.lastMessageId = message.MessageId()
	dialogue.orderedMessageIds = append(dialogue.orderedMessageIds, message.MessageId())

	if dialogue.rules.IsTerminal(message.Performative()) {
		dialogue.terminal = true
		for _, fn := range dialogue.terminalStateCallbacks {
			fn(dialogue)
		}
	}
	return nil
}

func (dialogue *Dialogue) isBelongingToDialogue(message ProtocolMessageInterface) bool {
	opponent := dialogue.counterPartyFromMessage(message)
	var label DialogueLabel
	if dialogue.IsSelfInitiated() {
		label = DialogueLabel{
			dialogueReference: DialogueReference{
				message.DialogueReference().dialogueStarterReference,
				UnassignedDialogueReference,
			},
			dialogueOpponentAddress: opponent,
			dialogueStarterAddress:  dialogue.selfAddress,
		}
	} else {
		label = DialogueLabel{
			dialogueReference:       message.DialogueReference(),
			dialogueOpponentAddress: opponent,
			dialogueStarterAddress:  opponent,
		}
	}
	return dialogue.checkLabelBelongsToDialogue(label)
}

func (dialogue *Dialogue) checkLabelBelongsToDialogue(label DialogueLabel) bool {
	return label == dialogue.dialogueLabel || label == dialogue.dialogueLabel.IncompleteVersion()
}

// Reply constructs and appends a new outgoing message replying to a
// target, resolved as follows: if both targetMessage and targetId are nil,
// the target is the dialogue's last message; if only one is given, the
// other is derived from it; if both are given, their ids must agree.
func (dialogue *Dialogue) Reply(
	performative Performative,
	targetMessage ProtocolMessageInterface,
	targetIDPtr *MessageId,
	body map[string]Value,
) (ProtocolMessageInterface, error) {
	if dialogue.IsEmpty() {
		return nil, newDialogueError(KindEmptyDialogue, "cannot reply in an empty dialogue")
	}

	var targetID MessageId
	msgGiven := targetMessage != nil
	idGiven := targetIDPtr != nil

	switch {
	case !msgGiven && !idGiven:
		last := dialogue.LastMessage()
		targetID = last.MessageId()
	case !msgGiven && idGiven:
		targetID = *targetIDPtr
	case msgGiven && !idGiven:
		targetID = targetMessage.MessageId()
	default:
		targetID = *targetIDPtr
		if targetID != targetMessage.MessageId() {
			return nil, newDialogueError(
				KindInconsistent, "the provided target id and target message do not agree",
			)
		}
	}

	if !dialogue.hasMessageId(targetID) {
		return nil, newDialogueError(KindNoSuchTarget, "target message %v not found in this dialogue", targetID)
	}

	reply := NewMessage(
		dialogue.dialogueLabel.dialogueReference,
		dialogue.getOutgoingNextMessageId(),
		targetID,
		performative,
		body,
	)
	_ = reply.SetSender(dialogue.selfAddress)
	_ = reply.SetTo(dialogue.dialogueLabel.dialogueOpponentAddress)

	if err := dialogue.Update(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// SetCustomValidator installs fn as the dialogue's extra validation step.
// Protocols whose constraints go beyond ids, targets, and the reply
// relation hook in here.
func (dialogue *Dialogue) SetCustomValidator(fn CustomValidatorFunc) {
	dialogue.customValidator = fn
}

func (dialogue *Dialogue) validateNextMessage(message ProtocolMessageInterface) error {
	var err error
	if dialogue.IsEmpty() {
		err = dialogue.basicValidationInitialMessage(message)
	} else {
		err = dialogue.basicValidationNonInitialMessage(message)
	}
	if err != nil {
		return err
	}
	if dialogue.customValidator != nil {
		return dialogue.customValidator(dialogue, message)
	}
	return nil
}

func (dialogue *Dialogue) basicValidationInitialMessage(message ProtocolMessageInterface) error {
	dialogueReference := message.DialogueReference()
	expectedReference := dialogue.dialogueLabel.dialogueReference.dialogueStarterReference
	actualReference := dialogueReference.dialogueStarterReference
	if expectedReference != actualReference {
		return newDialogueError(
			KindInvalidStarterRef,
			"invalid dialogue_starter_reference: expected %s, found %s", expectedReference, actualReference,
		)
	}
	if messageId := message.MessageId(); messageId != StartingMessageId {
		return newDialogueError(
			KindInvalidMessageId, "invalid message id: expected %v, found %v", StartingMessageId, messageId,
		)
	}
	if target := message.Target(); target != StartingTarget {
		return newDialogueError(
			KindInvalidTarget, "invalid target: expected %v, found %v", StartingTarget, target,
		)
	}
	if performative := message.Performative(); !dialogue.rules.IsInitial(performative) {
		return newDialogueError(KindInvalidPerformative, "invalid initial performative: %s", performative)
	}
	return nil
}

func (dialogue *Dialogue) basicValidationNonInitialMessage(message ProtocolMessageInterface) error {
	dialogueReference := message.DialogueReference()
	expectedReference := dialogue.dialogueLabel.dialogueReference.dialogueStarterReference
	actualReference := dialogueReference.dialogueStarterReference
	if expectedReference != actualReference {
		return newDialogueError(
			KindInvalidStarterRef,
			"invalid dialogue_starter_reference: expected %s, found %s", expectedReference, actualReference,
		)
	}
	if err := dialogue.validateMessageId(message); err != nil {
		return err
	}
	return dialogue.validateMessageTarget(message)
}

// validateMessageTarget checks a non-initial message's target field: zero
// only for the literal first message of the whole dialogue (id ==
// StartingMessageId), non-zero and in-range otherwise, and referring to a
// stored message whose performative this one is a valid reply to.
func (dialogue *Dialogue) validateMessageTarget(message ProtocolMessageInterface) error {
	target := message.Target()
	performative := message.Performative()

	if message.MessageId() == StartingMessageId {
		if target == StartingTarget {
			return nil
		}
		return newDialogueError(KindInvalidTarget, "invalid target: expected %v, found %v", StartingTarget, target)
	}

	if target == StartingTarget {
		return newDialogueError(KindInvalidTarget, "invalid target: expected a non-zero integer, found %v", target)
	}

	var latestIds []MessageId
	if lastIncoming := dialogue.LastIncomingMessage(); lastIncoming != nil {
		latestIds = append(latestIds, abs(lastIncoming.MessageId()))
	}
	if lastOutgoing := dialogue.LastOutgoingMessage(); lastOutgoing != nil {
		latestIds = append(latestIds, abs(lastOutgoing.MessageId()))
	}
	if absoluteTarget, maxLatestID := abs(target), max(latestIds); absoluteTarget > maxLatestID {
		return newDialogueError(
			KindInvalidTarget,
			"invalid target: expected a value less than or equal to %v, found %v", maxLatestID, absoluteTarget,
		)
	}

	targetMessage := dialogue.getMessageById(target)
	if targetMessage == nil {
		return newDialogueError(KindInvalidTarget, "invalid target %v: target message cannot be found", target)
	}
	targetPerformative := targetMessage.Performative()

	if validReplies := dialogue.rules.ValidReplies(targetPerformative); !validReplies.Contains(performative) {
		return newDialogueError(KindInvalidPerformative, "invalid performative: %q is not a valid reply to %q", performative, targetPerformative)
	}
	return nil
}

func (dialogue *Dialogue) validateMessageId(message ProtocolMessageInterface) error {
	var expected MessageId
	if dialogue.isMessageBySelf(message) {
		expected = dialogue.getOutgoingNextMessageId()
	} else {
		expected = dialogue.getIncomingNextMessageId()
	}
	if actual := message.MessageId(); actual != expected {
		return newDialogueError(KindInvalidMessageId, "invalid message id: expected %v, found %v", expected, actual)
	}
	return nil
}

// getMessageById looks up a stored message by its signed id, nil if none
// matches. The sign of id selects the direction (outgoing vs incoming)
// exactly as the dialogue itself encodes it.
func (dialogue *Dialogue) getMessageById(messageId MessageId) ProtocolMessageInterface {
	if dialogue.IsEmpty() || messageId == 0 {
		return nil
	}
	var messages []ProtocolMessageInterface
	if (messageId > 0) == dialogue.IsSelfInitiated() {
		messages = dialogue.outgoingMessages
	} else {
		messages = dialogue.incomingMessages
	}
	if len(messages) == 0 {
		return nil
	}
	absoluteID := abs(messageId)
	absoluteLastID := abs(messages[len(messages)-1].MessageId())
	if absoluteID > absoluteLastID {
		return nil
	}
	return messages[absoluteID-1]
}

// getOutgoingNextMessageId advances the magnitude from the last outgoing
// message, not from lastMessageId: each side numbers its own messages
// 1, 2, 3, ... regardless of how many arrived in between.
func (dialogue *Dialogue) getOutgoingNextMessageId() MessageId {
	nextMessageId := StartingMessageId
	if lastOutgoing := dialogue.LastOutgoingMessage(); lastOutgoing != nil {
		nextMessageId = abs(lastOutgoing.MessageId()) + 1
	}
	if !dialogue.IsSelfInitiated() {
		nextMessageId = -nextMessageId
	}
	return nextMessageId
}

func (dialogue *Dialogue) getIncomingNextMessageId() MessageId {
	nextMessageId := StartingMessageId
	if lastIncoming := dialogue.LastIncomingMessage(); lastIncoming != nil {
		nextMessageId = abs(lastIncoming.MessageId()) + 1
	}
	if dialogue.IsSelfInitiated() {
		nextMessageId = -nextMessageId
	}
	return nextMessageId
}

// UpdateLabel relabels the dialogue once the handshake completes. It fails
// if neither the current nor the incoming label carries an assigned
// responder reference, since there would be nothing to complete.
func (dialogue *Dialogue) UpdateLabel(finalDialogueLabel DialogueLabel) error {
	if dialogue.dialogueLabel.DialogueResponderReference() == UnassignedDialogueReference &&
		finalDialogueLabel.DialogueResponderReference() == UnassignedDialogueReference {
		return newDialogueError(KindCannotRelabel, "dialogue label cannot be updated")
	}
	dialogue.dialogueLabel = finalDialogueLabel
	return nil
}
