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
	"github.com/pkg/errors"

	"github.com/fetchai/agents-aea-sub004/internal/setutil"
)

// Rules fixes which performatives may open a dialogue, which close it, and
// which performatives are valid replies to which. It is immutable once
// constructed.
type Rules struct {
	initialPerformatives  setutil.Set[Performative]
	terminalPerformatives setutil.Set[Performative]
	validReplies          map[Performative]setutil.Set[Performative]
}

// NewRules validates and builds a Rules value. initial must be non-empty;
// a terminal performative may not also appear as a key with non-empty
// replies, since nothing may follow it.
func NewRules(
	initial []Performative,
	terminal []Performative,
	validReplies map[Performative][]Performative,
) (Rules, error) {
	if len(initial) == 0 {
		return Rules{}, errors.New("initial performatives must be non-empty")
	}
	terminalSet := setutil.NewSet(terminal...)
	replies := make(map[Performative]setutil.Set[Performative], len(validReplies))
	for performative, replyList := range validReplies {
		if terminalSet.Contains(performative) && len(replyList) > 0 {
			return Rules{}, errors.Errorf(
				"terminal performative %q cannot declare valid replies", performative,
			)
		}
		replies[performative] = setutil.NewSet(replyList...)
	}
	return Rules{
		initialPerformatives:  setutil.NewSet(initial...),
		terminalPerformatives: terminalSet,
		validReplies:          replies,
	}, nil
}

// IsInitial reports whether a performative may open a dialogue.
func (rules Rules) IsInitial(performative Performative) bool {
	return rules.initialPerformatives.Contains(performative)
}

// IsTerminal reports whether a performative closes a dialogue.
func (rules Rules) IsTerminal(performative Performative) bool {
	return rules.terminalPerformatives.Contains(performative)
}

// ValidReplies returns the set of performatives allowed in reply to the
// given one. A terminal performative, or one the rules don't mention, has
// an empty reply set.
func (rules Rules) ValidReplies(performative Performative) setutil.Set[Performative] {
	if rules.terminalPerformatives.Contains(performative) {
		return setutil.Set[Performative]{}
	}
	if replies, ok := rules.validReplies[performative]; ok {
		return replies
	}
	return setutil.Set[Performative]{}
}
