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

// Addresses shared across the package's tests.
const (
	senderAddress       Address = "sender_address"
	counterPartyAddress Address = "counterparty_address"
)

// Performatives used by the test suite's minimal request/response protocol.
const (
	performativeCfp      Performative = "cfp"
	performativePropose  Performative = "propose"
	performativeAccept   Performative = "accept"
	performativeDecline  Performative = "decline"
	performativeEnd      Performative = "end"
	performativeInform   Performative = "inform"
)

// testRules builds a small cfp/propose/accept-or-decline/end protocol: cfp
// opens a dialogue, end and decline close it, accept and propose continue it.
func testRules() Rules {
	rules, err := NewRules(
		[]Performative{performativeCfp},
		[]Performative{performativeEnd, performativeDecline},
		map[Performative][]Performative{
			performativeCfp:     {performativePropose, performativeDecline},
			performativePropose: {performativeAccept, performativeDecline},
			performativeAccept:  {performativeInform, performativeEnd},
			performativeInform:  {performativeInform, performativeEnd},
		},
	)
	if err != nil {
		panic(err)
	}
	return rules
}

// roleFromFirstMessage assigns Role1 to whoever sent the message that opened
// the dialogue, and Role2 to everyone else; good enough for tests.
func roleFromFirstMessage(message ProtocolMessageInterface, selfAddress Address) Role {
	if message.Sender() == selfAddress {
		return Role1
	}
	return Role2
}

func newTestDialogues(self Address) *Dialogues {
	return NewDialogues(self, roleFromFirstMessage, false, "test_protocol", testRules())
}
