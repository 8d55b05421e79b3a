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
	"os"

	"github.com/rs/zerolog"
)

var dialoguesLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Str("package", "protocols").Logger()

// RoleFromFirstMessageFunc decides which Role self plays in a dialogue,
// given the message that opened it.
type RoleFromFirstMessageFunc func(ProtocolMessageInterface, Address) Role

func newSelfInitiatedDialogueReference() DialogueReference {
	return DialogueReference{generateDialogueNonce(), UnassignedDialogueReference}
}

// Dialogues is the coordinator owning every Dialogue a single agent
// maintains: it classifies inbound messages, creates dialogues (self- or
// opponent-initiated), completes handshakes, and rolls back storage when an
// initial message turns out to be invalid.
type Dialogues struct {
	selfAddress                Address
	roleFromFirstMessage       RoleFromFirstMessageFunc
	keepTerminalStateDialogues bool
	dialogueName               string
	dialogueStorage            DialogueStorageInterface
	rules                      Rules
	observers                  []Observer
}

// NewDialogues builds a coordinator for selfAddress, using rules to
// validate every dialogue it creates.
func NewDialogues(
	selfAddress Address,
	roleFromFirstMessage RoleFromFirstMessageFunc,
	keepTerminalStateDialogues bool,
	dialogueName string,
	rules Rules,
) *Dialogues {
	dialogues := &Dialogues{
		selfAddress:                selfAddress,
		roleFromFirstMessage:       roleFromFirstMessage,
		keepTerminalStateDialogues: keepTerminalStateDialogues,
		dialogueName:               dialogueName,
		rules:                      rules,
	}
	dialogues.dialogueStorage = NewSimpleDialogueStorage(dialogues)
	return dialogues
}

// AddObserver registers o to be notified of dialogue creation, terminal
// transitions, and rejected messages.
func (dialogues *Dialogues) AddObserver(o Observer) {
	dialogues.observers = append(dialogues.observers, o)
}

func (dialogues *Dialogues) notifyCreated(dialogue *Dialogue) {
	for _, o := range dialogues.observers {
		o.OnDialogueCreated(dialogue)
	}
}

func (dialogues *Dialogues) notifyTerminal(dialogue *Dialogue) {
	for _, o := range dialogues.observers {
		o.OnDialogueTerminal(dialogue)
	}
}

func (dialogues *Dialogues) notifyRolledBack(dialogue *Dialogue) {
	for _, o := range dialogues.observers {
		o.OnDialogueRolledBack(dialogue)
	}
}

func (dialogues *Dialogues) notifyRejected(reason string) {
	for _, o := range dialogues.observers {
		o.OnMessageRejected(reason)
	}
}

func (dialogues *Dialogues) IsKeepDialoguesInTerminalStates() bool {
	return dialogues.keepTerminalStateDialogues
}

func (dialogues *Dialogues) SelfAddress() Address {
	return dialogues.selfAddress
}

func (dialogues *Dialogues) GetDialoguesWithCounterparty(counterparty Address) []*Dialogue {
	return dialogues.dialogueStorage.GetDialoguesWithCounterparty(counterparty)
}

// TerminalDialogues returns every dialogue currently retained in a
// terminal state (empty unless keepTerminalStateDialogues is set).
func (dialogues *Dialogues) TerminalDialogues() []*Dialogue {
	return dialogues.dialogueStorage.GetDialoguesInTerminalState()
}

// ActiveDialogues returns every dialogue not currently in a terminal
// state.
func (dialogues *Dialogues) ActiveDialogues() []*Dialogue {
	return dialogues.dialogueStorage.GetDialoguesInActiveState()
}

func (dialogues *Dialogues) isMessageBySelf(message ProtocolMessageInterface) bool {
	return message.Sender() == dialogues.selfAddress
}

func (dialogues *Dialogues) isMessageByOther(message ProtocolMessageInterface) bool {
	return !dialogues.isMessageBySelf(message)
}

func (dialogues *Dialogues) counterpartyFromMessage(message ProtocolMessageInterface) Address {
	if dialogues.isMessageBySelf(message) {
		return message.To()
	}
	return message.Sender()
}

// Create builds and registers a new self-initiated dialogue opening with
// performative/body, returning the constructed initial message alongside
// the dialogue.
func (dialogues *Dialogues) Create(
	counterparty Address,
	performative Performative,
	body map[string]Value,
) (ProtocolMessageInterface, *Dialogue, error) {
	dialogueReference := newSelfInitiatedDialogueReference()
	initialMessage := NewMessage(dialogueReference, StartingMessageId, StartingTarget, performative, body)
	// safe to ignore errors: the message was just created, both fields are unset
	_ = initialMessage.SetSender(dialogues.selfAddress)
	_ = initialMessage.SetTo(counterparty)

	dialogue, err := dialogues.createDialogue(counterparty, initialMessage)
	if err != nil {
		dialoguesLogger.Debug().Err(err).Str("counterparty", string(counterparty)).Msg("rejected self-initiated dialogue")
		dialogues.notifyRejected(err.Error())
		return nil, nil, err
	}
	return initialMessage, dialogue, nil
}

// CreateWithMessage is like Create, but the caller supplies an
// already-built initial message (sender/to still unset).
func (dialogues *Dialogues) CreateWithMessage(
	counterparty Address,
	initialMessage ProtocolMessageInterface,
) (*Dialogue, error) {
	if err := initialMessage.SetSender(dialogues.selfAddress); err != nil {
		return nil, err
	}
	if err := initialMessage.SetTo(counterparty); err != nil {
		return nil, err
	}
	return dialogues.createDialogue(counterparty, initialMessage)
}

func (dialogues *Dialogues) createDialogue(
	counterparty Address,
	initialMessage ProtocolMessageInterface,
) (*Dialogue, error) {
	dialogue, err := dialogues.createSelfInitiated(
		counterparty,
		initialMessage.DialogueReference(),
		dialogues.roleFromFirstMessage(initialMessage, dialogues.selfAddress),
	)
	if err != nil {
		return nil, err
	}
	if err := dialogue.Update(initialMessage); err != nil {
		// the initial message failed validation against its own freshly-created
		// dialogue: roll back the storage insertion rather than leave an
		// unreachable, empty dialogue behind.
		dialogues.dialogueStorage.RemoveDialogue(dialogue.DialogueLabel())
		dialogues.notifyRolledBack(dialogue)
		return nil, err
	}
	return dialogue, nil
}

// Update classifies an inbound message (invalid label / new dialogue /
// incomplete handshake in progress / completing handshake), resolves or
// creates the corresponding Dialogue, and appends the message to it. A
// newly-created dialogue is rolled back if the very message that created
// it fails validation.
func (dialogues *Dialogues) Update(message ProtocolMessageInterface) (*Dialogue, error) {
	if !(message.HasSender() && dialogues.isMessageByOther(message)) {
		return nil, newDialogueError(KindNotBelonging, "Update must only be used with a message by another agent")
	}
	if !message.HasTo() {
		return nil, newDialogueError(KindNotBelonging, "the message's 'to' field is not set")
	}
	if message.To() != dialogues.selfAddress {
		return nil, newDialogueError(
			KindNotBelonging,
			"message 'to' and dialogue 'self address' do not match: got 'to=%s' expected 'to=%s'",
			message.To(), dialogues.selfAddress,
		)
	}

	dialogueReference := message.DialogueReference()
	starterRefAssigned := dialogueReference.dialogueStarterReference != UnassignedDialogueReference
	responderRefAssigned := dialogueReference.dialogueResponderReference != UnassignedDialogueReference
	isStartingMsgId := message.MessageId() == StartingMessageId

	isInvalidLabel := !starterRefAssigned && responderRefAssigned
	isNewDialogue := starterRefAssigned && !responderRefAssigned && isStartingMsgId
	isIncompleteLabelAndNotInitialMsg := starterRefAssigned && !responderRefAssigned && !isStartingMsgId

	var dialogue *Dialogue
	var err error
	var created bool

	switch {
	case isInvalidLabel:
		dialoguesLogger.Debug().Msg("rejected message: invalid dialogue reference")
		dialogues.notifyRejected("invalid dialogue reference")
		return nil, nil
	case isNewDialogue:
		dialogue, err = dialogues.createOpponentInitiated(
			message.Sender(), dialogueReference, dialogues.roleFromFirstMessage(message, dialogues.selfAddress),
		)
		if err != nil {
			dialoguesLogger.Debug().Err(err).Msg("rejected opponent-initiated dialogue")
			dialogues.notifyRejected(err.Error())
			return nil, err
		}
		created = true
	case isIncompleteLabelAndNotInitialMsg:
		// the handshake has not completed yet; several messages may arrive
		// under the incomplete label before the responder reference is known.
		dialogue = dialogues.GetDialogue(message)
	default:
		// starterRefAssigned && responderRefAssigned: completing the handshake.
		// A reference with neither side assigned also lands here and is
		// rejected by completeDialogueReference.
		if err = dialogues.completeDialogueReference(message); err != nil {
			dialoguesLogger.Debug().Err(err).Msg("failed to complete dialogue reference")
			dialogues.notifyRejected(err.Error())
			return nil, err
		}
		dialogue = dialogues.GetDialogue(message)
	}

	if dialogue == nil {
		dialoguesLogger.Debug().Msg("rejected message: no dialogue found for it")
		dialogues.notifyRejected("no dialogue found for message")
		return nil, nil
	}

	if err := dialogue.Update(message); err != nil {
		if created {
			dialogues.dialogueStorage.RemoveDialogue(dialogue.DialogueLabel())
			dialogues.notifyRolledBack(dialogue)
		}
		dialoguesLogger.Debug().Err(err).Msg("rejected message: failed dialogue update")
		dialogues.notifyRejected(err.Error())
		return nil, err
	}
	return dialogue, nil
}

func (dialogues *Dialogues) completeDialogueReference(message ProtocolMessageInterface) error {
	completeReference := message.DialogueReference()
	starterRef := completeReference.dialogueStarterReference
	responderRef := completeReference.dialogueResponderReference
	if starterRef == UnassignedDialogueReference || responderRef == UnassignedDialogueReference {
		return newDialogueError(KindInconsistent, "only complete dialogue references allowed here")
	}
	incompleteLabel := DialogueLabel{
		DialogueReference{starterRef, UnassignedDialogueReference},
		message.Sender(),
		dialogues.selfAddress,
	}

	if dialogues.dialogueStorage.IsDialoguePresent(incompleteLabel) && !dialogues.dialogueStorage.IsInIncomplete(incompleteLabel) {
		dialogue := dialogues.dialogueStorage.GetDialogue(incompleteLabel)
		if dialogue == nil {
			return newDialogueError(KindInconsistent, "dialogue not found for incomplete label")
		}
		dialogues.dialogueStorage.RemoveDialogue(incompleteLabel)
		finalLabel := DialogueLabel{
			completeReference,
			incompleteLabel.dialogueOpponentAddress,
			incompleteLabel.dialogueStarterAddress,
		}
		if err := dialogue.UpdateLabel(finalLabel); err != nil {
			return err
		}
		dialogues.dialogueStorage.AddDialogue(dialogue)
		dialogues.dialogueStorage.SetIncompleteDialogue(incompleteLabel, finalLabel)
	}
	return nil
}

// GetDialogue resolves the Dialogue a message belongs to, trying first the
// self-initiated label shape, then the opponent-initiated one.
func (dialogues *Dialogues) GetDialogue(message ProtocolMessageInterface) *Dialogue {
	opponent := dialogues.counterpartyFromMessage(message)
	dialogueReference := message.DialogueReference()

	selfInitiatedLabel := DialogueLabel{dialogueReference, opponent, dialogues.selfAddress}
	otherInitiatedLabel := DialogueLabel{dialogueReference, opponent, opponent}

	selfInitiatedLabel = dialogues.getLatestLabel(selfInitiatedLabel)
	otherInitiatedLabel = dialogues.getLatestLabel(otherInitiatedLabel)

	if dialogue := dialogues.GetDialogueFromLabel(selfInitiatedLabel); dialogue != nil {
		return dialogue
	}
	return dialogues.GetDialogueFromLabel(otherInitiatedLabel)
}

func (dialogues *Dialogues) getLatestLabel(label DialogueLabel) DialogueLabel {
	return dialogues.dialogueStorage.GetLatestLabel(label)
}

func (dialogues *Dialogues) GetDialogueFromLabel(label DialogueLabel) *Dialogue {
	return dialogues.dialogueStorage.GetDialogue(label)
}

func (dialogues *Dialogues) createSelfInitiated(
	opponent Address,
	dialogueReference DialogueReference,
	role Role,
) (*Dialogue, error) {
	if dialogueReference.dialogueStarterReference == UnassignedDialogueReference ||
		dialogueReference.dialogueResponderReference != UnassignedDialogueReference {
		return nil, newDialogueError(KindPreassignedResponder, "cannot initiate dialogue with a preassigned responder reference")
	}
	incompleteLabel := DialogueLabel{dialogueReference, opponent, dialogues.selfAddress}
	return dialogues.create(incompleteLabel, role, nil)
}

func (dialogues *Dialogues) createOpponentInitiated(
	opponent Address,
	dialogueReference DialogueReference,
	role Role,
) (*Dialogue, error) {
	if dialogueReference.dialogueStarterReference == UnassignedDialogueReference ||
		dialogueReference.dialogueResponderReference != UnassignedDialogueReference {
		return nil, newDialogueError(KindPreassignedResponder, "cannot initiate dialogue with a preassigned responder reference")
	}
	incompleteLabel := DialogueLabel{dialogueReference, opponent, opponent}
	newReference := DialogueReference{dialogueReference.dialogueStarterReference, generateDialogueNonce()}
	completeLabel := DialogueLabel{newReference, opponent, opponent}
	return dialogues.create(incompleteLabel, role, &completeLabel)
}

// create registers a new Dialogue. When completeLabel is non-nil
// (opponent-initiated case), the dialogue is stored under completeLabel —
// which carries the locally synthesized responder reference — and
// incompleteLabel is recorded as an alias so the opponent's messages,
// which keep carrying the incomplete reference until they learn ours,
// still resolve to it.
func (dialogues *Dialogues) create(
	incompleteLabel DialogueLabel,
	role Role,
	completeLabel *DialogueLabel,
) (*Dialogue, error) {
	if dialogues.dialogueStorage.IsInIncomplete(incompleteLabel) {
		return nil, newDialogueError(KindDuplicateLabel, "incomplete dialogue label already present")
	}
	dialogueLabel := incompleteLabel
	if completeLabel != nil {
		dialogueLabel = *completeLabel
	}
	if dialogues.dialogueStorage.IsDialoguePresent(dialogueLabel) {
		return nil, newDialogueError(KindDuplicateLabel, "dialogue label already present in storage")
	}
	if completeLabel != nil {
		dialogues.dialogueStorage.SetIncompleteDialogue(incompleteLabel, *completeLabel)
	}
	dialogue := NewDialogue(dialogueLabel, dialogues.selfAddress, role, dialogues.rules)
	dialogues.dialogueStorage.AddDialogue(dialogue)
	dialogue.AddTerminalStateCallback(func(d *Dialogue) {
		dialoguesLogger.Info().Str("label", d.DialogueLabel().String()).Msg("dialogue reached terminal state")
		dialogues.notifyTerminal(d)
	})
	dialoguesLogger.Info().Str("label", dialogue.DialogueLabel().String()).Msg("dialogue created")
	dialogues.notifyCreated(dialogue)
	return dialogue, nil
}
