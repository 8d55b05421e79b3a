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
	"crypto/rand"
	"encoding/hex"
)

const NonceBytesNb = 32

// generateDialogueNonce produces a 64-character lowercase hex token, long
// enough that two independently-generated nonces colliding is treated as
// never happening in practice. A failure to read the entropy source is
// unrecoverable; returning an empty nonce here would silently defeat the
// uniqueness the rest of the coordinator relies on, so we panic instead.
func generateDialogueNonce() string {
	return randomHex(NonceBytesNb)
}

func randomHex(n int) string {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		panic(err)
	}
	return hex.EncodeToString(raw)
}
