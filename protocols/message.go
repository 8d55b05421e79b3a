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

type MessageId int
type Address string
type Performative string

// ProtocolMessageInterface is the contract a Dialogue/Dialogues coordinator relies
// on. Anything satisfying it can be appended to a dialogue's history,
// regardless of how its wire encoding or producer looks.
type ProtocolMessageInterface interface {
	Sender() Address
	SetSender(Address) error
	To() Address
	SetTo(Address) error
	MessageId() MessageId
	DialogueReference() DialogueReference
	Target() MessageId
	Performative() Performative
	Body() map[string]Value
	HasSender() bool
	HasTo() bool
	GetField(name string) (Value, bool)
}

// Message is the concrete ProtocolMessage used by this module. Sender and
// To are one-shot: set once by the framework (on send) or left to be
// matched against the dialogue's self address (on receipt).
type Message struct {
	to                Address
	sender            Address
	dialogueReference DialogueReference
	messageId         MessageId
	target            MessageId
	performative      Performative
	body              map[string]Value
}

// NewMessage builds a Message whose sender/to are still unset.
func NewMessage(
	dialogueReference DialogueReference,
	messageId MessageId,
	target MessageId,
	performative Performative,
	body map[string]Value,
) *Message {
	if body == nil {
		body = map[string]Value{}
	}
	return &Message{
		dialogueReference: dialogueReference,
		messageId:         messageId,
		target:            target,
		performative:      performative,
		body:              body,
	}
}

func (message *Message) Sender() Address {
	return message.sender
}

func (message *Message) SetSender(newAddress Address) error {
	if message.sender != "" {
		return newDialogueError(KindAlreadySet, "'sender' field already set")
	}
	message.sender = newAddress
	return nil
}

func (message *Message) To() Address {
	return message.to
}

func (message *Message) SetTo(newAddress Address) error {
	if message.to != "" {
		return newDialogueError(KindAlreadySet, "'to' field already set")
	}
	message.to = newAddress
	return nil
}

func (message *Message) MessageId() MessageId {
	return message.messageId
}

func (message *Message) DialogueReference() DialogueReference {
	return message.dialogueReference
}

func (message *Message) Target() MessageId {
	return message.target
}

func (message *Message) Performative() Performative {
	return message.performative
}

func (message *Message) Body() map[string]Value {
	return message.body
}

func (message *Message) HasSender() bool {
	return message.sender != ""
}

func (message *Message) HasTo() bool {
	return message.to != ""
}

// GetField returns the value of the named body field, and whether it was
// present at all.
func (message *Message) GetField(name string) (Value, bool) {
	value, ok := message.body[name]
	return value, ok
}
