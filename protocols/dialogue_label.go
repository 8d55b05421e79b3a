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
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// DialogueReference is the pair of nonces that keys a dialogue on its two
// sides. The responder reference is unassigned (empty string) until the
// responder's first message completes it.
type DialogueReference struct {
	dialogueStarterReference   string
	dialogueResponderReference string
}

func NewDialogueReference(starterReference, responderReference string) DialogueReference {
	return DialogueReference{starterReference, responderReference}
}

func (dialogueReference DialogueReference) DialogueStarterReference() string {
	return dialogueReference.dialogueStarterReference
}

func (dialogueReference DialogueReference) DialogueResponderReference() string {
	return dialogueReference.dialogueResponderReference
}

// IsComplete reports whether both sides of the reference are assigned.
func (dialogueReference DialogueReference) IsComplete() bool {
	return dialogueReference.dialogueStarterReference != UnassignedDialogueReference &&
		dialogueReference.dialogueResponderReference != UnassignedDialogueReference
}

// DialogueLabel is the four-field composite key identifying a dialogue from
// one participant's point of view: the reference pair, the address of the
// opponent, and the address of whoever started the dialogue.
type DialogueLabel struct {
	dialogueReference       DialogueReference
	dialogueOpponentAddress Address
	dialogueStarterAddress  Address
}

func NewDialogueLabel(
	dialogueReference DialogueReference,
	dialogueOpponentAddress Address,
	dialogueStarterAddress Address,
) DialogueLabel {
	return DialogueLabel{dialogueReference, dialogueOpponentAddress, dialogueStarterAddress}
}

// DialogueReference returns the dialogue reference.
func (dialogueLabel DialogueLabel) DialogueReference() DialogueReference {
	return dialogueLabel.dialogueReference
}

// DialogueStarterReference returns the dialogue starter reference.
func (dialogueLabel DialogueLabel) DialogueStarterReference() string {
	return dialogueLabel.dialogueReference.DialogueStarterReference()
}

// DialogueResponderReference returns the dialogue responder reference.
func (dialogueLabel DialogueLabel) DialogueResponderReference() string {
	return dialogueLabel.dialogueReference.DialogueResponderReference()
}

// DialogueOpponentAddress returns the dialogue opponent address.
func (dialogueLabel DialogueLabel) DialogueOpponentAddress() Address {
	return dialogueLabel.dialogueOpponentAddress
}

// DialogueStarterAddress returns the dialogue starter address.
func (dialogueLabel DialogueLabel) DialogueStarterAddress() Address {
	return dialogueLabel.dialogueStarterAddress
}

// IncompleteVersion returns the incomplete version of the label, i.e. the
// label as it would read before the responder reference was assigned.
func (dialogueLabel DialogueLabel) IncompleteVersion() DialogueLabel {
	return DialogueLabel{
		DialogueReference{dialogueLabel.DialogueStarterReference(), UnassignedDialogueReference},
		dialogueLabel.dialogueOpponentAddress,
		dialogueLabel.dialogueStarterAddress,
	}
}

type dialogueLabelJSON struct {
	StarterReference   string `json:"dialogue_starter_reference"`
	ResponderReference string `json:"dialogue_responder_reference"`
	OpponentAddr       string `json:"dialogue_opponent_addr"`
	StarterAddr        string `json:"dialogue_starter_addr"`
}

// MarshalJSON renders the DialogueLabel as a four-key JSON object.
func (dialogueLabel DialogueLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal(dialogueLabelJSON{
		StarterReference:   dialogueLabel.DialogueStarterReference(),
		ResponderReference: dialogueLabel.DialogueResponderReference(),
		OpponentAddr:       string(dialogueLabel.dialogueOpponentAddress),
		StarterAddr:        string(dialogueLabel.dialogueStarterAddress),
	})
}

// UnmarshalJSON parses the object form of a DialogueLabel. Additional keys
// are ignored; key ordering is insignificant; a missing key fails.
func (dialogueLabel *DialogueLabel) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := []string{
		"dialogue_starter_reference",
		"dialogue_responder_reference",
		"dialogue_opponent_addr",
		"dialogue_starter_addr",
	}
	values := make([]string, len(keys))
	for i, key := range keys {
		value, ok := raw[key]
		if !ok {
			return errors.Errorf("missing key %q in DialogueLabel JSON", key)
		}
		if err := json.Unmarshal(value, &values[i]); err != nil {
			return err
		}
	}
	dialogueLabel.dialogueReference = DialogueReference{values[0], values[1]}
	dialogueLabel.dialogueOpponentAddress = Address(values[2])
	dialogueLabel.dialogueStarterAddress = Address(values[3])
	return nil
}

// String renders the DialogueLabel as its underscore-joined string form.
func (dialogueLabel DialogueLabel) String() string {
	return strings.Join([]string{
		dialogueLabel.DialogueStarterReference(),
		dialogueLabel.DialogueResponderReference(),
		string(dialogueLabel.dialogueOpponentAddress),
		string(dialogueLabel.dialogueStarterAddress),
	}, DialogueLabelStringSeparator)
}

// DialogueLabelFromString parses the string form produced by String. It
// fails unless the input splits into exactly four parts, so a label whose
// references or addresses contain the separator does not round-trip.
func DialogueLabelFromString(s string) (DialogueLabel, error) {
	parts := strings.Split(s, DialogueLabelStringSeparator)
	if length := len(parts); length != 4 {
		return DialogueLabel{}, errors.Errorf("expected exactly 4 parts, got %d", length)
	}
	return DialogueLabel{
		DialogueReference{parts[0], parts[1]},
		Address(parts[2]),
		Address(parts[3]),
	}, nil
}
