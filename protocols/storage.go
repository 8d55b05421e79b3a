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

import "github.com/fetchai/agents-aea-sub004/internal/setutil"

// DialogueStorageInterface is the storage contract a Dialogues coordinator
// relies on: lookup by label, by opponent, incomplete-to-complete label
// rewriting, and terminal-state bookkeeping.
type DialogueStorageInterface interface {
	GetDialoguesInTerminalState() []*Dialogue
	GetDialoguesInActiveState() []*Dialogue
	IsTerminalDialoguesKept() bool
	DialogueTerminalStateCallback(*Dialogue)
	AddDialogue(dialogue *Dialogue)
	RemoveDialogue(dialogueLabel DialogueLabel)
	GetDialogue(label DialogueLabel) *Dialogue
	GetDialoguesWithCounterparty(counterparty Address) []*Dialogue
	IsInIncomplete(dialogueLabel DialogueLabel) bool
	SetIncompleteDialogue(incompleteDialogueLabel DialogueLabel, completeDialogueLabel DialogueLabel)
	IsDialoguePresent(dialogueLabel DialogueLabel) bool
	GetLatestLabel(dialogueLabel DialogueLabel) DialogueLabel
}

// SimpleDialogueStorage is an in-memory DialogueStorageInterface keyed four
// ways: by label, by opponent address, incomplete-to-complete label, and
// the set of labels currently in a terminal state.
type SimpleDialogueStorage struct {
	dialogues                          *Dialogues
	dialoguesByDialogueLabel           map[DialogueLabel]*Dialogue
	dialoguesByAddress                 map[Address][]*Dialogue
	incompleteToCompleteDialogueLabels map[DialogueLabel]DialogueLabel
	terminalStateDialogueLabels        setutil.Set[DialogueLabel]
}

func NewSimpleDialogueStorage(dialogues *Dialogues) *SimpleDialogueStorage {
	return &SimpleDialogueStorage{
		dialogues:                          dialogues,
		dialoguesByDialogueLabel:           make(map[DialogueLabel]*Dialogue),
		dialoguesByAddress:                 make(map[Address][]*Dialogue),
		incompleteToCompleteDialogueLabels: make(map[DialogueLabel]DialogueLabel),
		terminalStateDialogueLabels:        setutil.NewSet[DialogueLabel](),
	}
}

func (storage *SimpleDialogueStorage) GetDialoguesInTerminalState() []*Dialogue {
	result := make([]*Dialogue, 0)
	for _, label := range storage.terminalStateDialogueLabels.ToArray() {
		if dialogue, ok := storage.dialoguesByDialogueLabel[label]; ok {
			result = append(result, dialogue)
		}
	}
	return result
}

func (storage *SimpleDialogueStorage) GetDialoguesInActiveState() []*Dialogue {
	result := make([]*Dialogue, 0)
	for label, dialogue := range storage.dialoguesByDialogueLabel {
		if !storage.terminalStateDialogueLabels.Contains(label) {
			result = append(result, dialogue)
		}
	}
	return result
}

func (storage *SimpleDialogueStorage) IsTerminalDialoguesKept() bool {
	return storage.dialogues.IsKeepDialoguesInTerminalStates()
}

// DialogueTerminalStateCallback is registered on every Dialogue this
// storage adds; it either retains the dialogue under the terminal-label
// set or evicts it entirely, depending on configuration.
func (storage *SimpleDialogueStorage) DialogueTerminalStateCallback(dialogue *Dialogue) {
	if storage.dialogues.IsKeepDialoguesInTerminalStates() {
		storage.terminalStateDialogueLabels.Add(dialogue.dialogueLabel)
	} else {
		storage.RemoveDialogue(dialogue.dialogueLabel)
	}
}

func (storage *SimpleDialogueStorage) AddDialogue(dialogue *Dialogue) {
	dialogue.AddTerminalStateCallback(storage.DialogueTerminalStateCallback)
	storage.dialoguesByDialogueLabel[dialogue.dialogueLabel] = dialogue

	opponent := dialogue.dialogueLabel.dialogueOpponentAddress
	storage.dialoguesByAddress[opponent] = append(storage.dialoguesByAddress[opponent], dialogue)
}

func (storage *SimpleDialogueStorage) RemoveDialogue(dialogueLabel DialogueLabel) {
	if _, ok := storage.dialoguesByDialogueLabel[dialogueLabel]; !ok {
		return
	}
	delete(storage.dialoguesByDialogueLabel, dialogueLabel)
	delete(storage.incompleteToCompleteDialogueLabels, dialogueLabel)
	incompleteVersion := dialogueLabel.IncompleteVersion()
	if complete, ok := storage.incompleteToCompleteDialogueLabels[incompleteVersion]; ok && complete == dialogueLabel {
		delete(storage.incompleteToCompleteDialogueLabels, incompleteVersion)
	}
	storage.terminalStateDialogueLabels.Remove(dialogueLabel)

	opponent := dialogueLabel.dialogueOpponentAddress
	storage.dialoguesByAddress[opponent] = removeDialogueFromArray(storage.dialoguesByAddress[opponent], dialogueLabel)
}

func (storage *SimpleDialogueStorage) GetDialogue(label DialogueLabel) *Dialogue {
	return storage.dialoguesByDialogueLabel[label]
}

func (storage *SimpleDialogueStorage) GetDialoguesWithCounterparty(counterparty Address) []*Dialogue {
	result := make([]*Dialogue, 0, len(storage.dialoguesByAddress[counterparty]))
	result = append(result, storage.dialoguesByAddress[counterparty]...)
	return result
}

func (storage *SimpleDialogueStorage) IsInIncomplete(dialogueLabel DialogueLabel) bool {
	_, ok := storage.incompleteToCompleteDialogueLabels[dialogueLabel]
	return ok
}

func (storage *SimpleDialogueStorage) SetIncompleteDialogue(
	incompleteDialogueLabel DialogueLabel,
	completeDialogueLabel DialogueLabel,
) {
	storage.incompleteToCompleteDialogueLabels[incompleteDialogueLabel] = completeDialogueLabel
}

func (storage *SimpleDialogueStorage) IsDialoguePresent(dialogueLabel DialogueLabel) bool {
	_, ok := storage.dialoguesByDialogueLabel[dialogueLabel]
	return ok
}

func (storage *SimpleDialogueStorage) GetLatestLabel(dialogueLabel DialogueLabel) DialogueLabel {
	if result, ok := storage.incompleteToCompleteDialogueLabels[dialogueLabel]; ok {
		return result
	}
	return dialogueLabel
}

// removeDialogueFromArray returns array with the first dialogue matching
// dialogueLabel removed. If no element matches (already removed, or never
// present), array is returned unchanged.
func removeDialogueFromArray(array []*Dialogue, dialogueLabel DialogueLabel) []*Dialogue {
	for i, dialogue := range array {
		if dialogue.dialogueLabel == dialogueLabel {
			return append(array[:i], array[i+1:]...)
		}
	}
	return array
}
