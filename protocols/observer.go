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

// Observer is notified of coordinator-level lifecycle events. It exists so
// that instrumentation (tracing, metrics, logging) can be wired into a
// Dialogues coordinator without the protocols package importing any of
// those libraries itself.
type Observer interface {
	// OnDialogueCreated fires once a dialogue has been registered in
	// storage, whether self- or opponent-initiated.
	OnDialogueCreated(dialogue *Dialogue)
	// OnDialogueTerminal fires when a dialogue's last appended message
	// carries a terminal performative.
	OnDialogueTerminal(dialogue *Dialogue)
	// OnDialogueRolledBack fires when a freshly created dialogue is removed
	// again because its very first message failed validation.
	OnDialogueRolledBack(dialogue *Dialogue)
	// OnMessageRejected fires when Create rejects its initial message or
	// Update rejects an inbound one, with the rejecting error's full text
	// (which begins with its Kind) or a short literal reason. Update's
	// sender/to precondition failures and CreateWithMessage's errors are
	// returned without notifying.
	OnMessageRejected(reason string)
}
