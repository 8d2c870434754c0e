//  Copyright (c) 2025 the nullvet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package diagnostic

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/klauspost/compress/s2"
)

// Archive is a machine-readable snapshot of the findings of one run,
// written by the standalone checker's -report flag. It is a downstream
// report artifact only: analysis state itself is never persisted, and every
// run recomputes from scratch.
type Archive struct {
	Diagnostics []Diagnostic
}

// GobEncode encodes the archive with gob, s2-compressed. The encoding is
// deterministic for identical archives since Diagnostics is an ordered
// slice.
func (a *Archive) GobEncode() (b []byte, err error) {
	var buf bytes.Buffer
	writer := s2.NewWriter(&buf)
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := gob.NewEncoder(writer).Encode(a.Diagnostics); err != nil {
		return nil, err
	}

	// Close the s2 writer before taking the bytes so the stream is complete.
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes an archive produced by GobEncode.
func (a *Archive) GobDecode(input []byte) error {
	a.Diagnostics = nil
	buf := bytes.NewBuffer(input)
	return gob.NewDecoder(s2.NewReader(buf)).Decode(&a.Diagnostics)
}

// Encode serializes the archive to bytes.
func Encode(a *Archive) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an archive serialized by Encode.
func Decode(b []byte) (*Archive, error) {
	var a Archive
	if err := gob.NewDecoder(bytes.NewBuffer(b)).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}
