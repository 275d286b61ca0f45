package ecp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
)

// KeyEntry is one step of a button sequence: exactly one key type
// (keypress, keydown or keyup) mapped to a button name, e.g. {"keypress": "up"}.
type KeyEntry map[string]string

// Press builds a keypress entry.
func Press(key string) KeyEntry {
	return KeyEntry{string(ecp.KeyPress): key}
}

// parse returns the entry's key type and key.
func (e KeyEntry) parse(index int) (ecp.KeyType, string, error) {
	if len(e) != 1 {
		return "", "", core.ErrSequenceFormat.WithMessage(
			fmt.Sprintf("sequence entry %d must have exactly one key type, got %d", index, len(e)))
	}
	for k, v := range e {
		keyType, err := ecp.ParseKeyType(k)
		if err != nil {
			return "", "", core.ErrSequenceFormat.WithMessage(
				fmt.Sprintf("sequence entry %d: unknown key type %q", index, k))
		}
		return keyType, v, nil
	}
	return "", "", nil
}

// KeyStatus is the status of one dispatched key. It encodes to JSON as
// {"<key>": <status>}.
type KeyStatus struct {
	Key    string
	Status int
}

// MarshalJSON implements json.Marshaler.
func (s KeyStatus) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	key, err := json.Marshal(s.Key)
	if err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	buf.Write(key)
	fmt.Fprintf(&buf, ":%d}", s.Status)
	return buf.Bytes(), nil
}

// keyStep is a resolved key press.
type keyStep struct {
	keyType ecp.KeyType
	code    string
	label   string
}

// SendKey sends one key event and waits the press delay.
func (d *Driver) SendKey(ctx context.Context, keyType ecp.KeyType, key string) (int, error) {
	code, err := ecp.KeyCode(key)
	if err != nil {
		return 0, err
	}
	return d.press(ctx, keyStep{keyType: keyType, code: code, label: key})
}

// SendButton presses one button.
func (d *Driver) SendButton(ctx context.Context, key string) (int, error) {
	return d.SendKey(ctx, ecp.KeyPress, key)
}

// SendButtonSequence dispatches entries strictly in order, each followed by
// the press delay. A malformed entry or a failed press stops the sequence;
// statuses of the keys already sent are returned with the error.
func (d *Driver) SendButtonSequence(ctx context.Context, entries []KeyEntry) ([]KeyStatus, error) {
	statuses := make([]KeyStatus, 0, len(entries))
	for i, entry := range entries {
		keyType, key, err := entry.parse(i)
		if err != nil {
			return statuses, err
		}
		code, err := ecp.KeyCode(key)
		if err != nil {
			return statuses, err
		}
		status, err := d.press(ctx, keyStep{keyType: keyType, code: code, label: key})
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, KeyStatus{Key: key, Status: status})
	}
	return statuses, nil
}

// SendWord types word one character at a time with LIT_ key codes. Statuses
// are keyed by character.
func (d *Driver) SendWord(ctx context.Context, word string) ([]KeyStatus, error) {
	statuses := make([]KeyStatus, 0, len(word))
	for _, r := range word {
		status, err := d.press(ctx, keyStep{keyType: ecp.KeyPress, code: ecp.LiteralCode(r), label: string(r)})
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, KeyStatus{Key: string(r), Status: status})
	}
	return statuses, nil
}

func (d *Driver) press(ctx context.Context, step keyStep) (int, error) {
	status, err := d.client.Command(ctx, ecp.KeyPath(step.keyType, step.code))
	if err != nil {
		return status, fmt.Errorf("%s %s: %w", step.keyType, step.label, err)
	}
	logger.Debug("%s %s -> %d", step.keyType, step.code, status)
	if err := d.poller.Sleeper.Sleep(ctx, d.pressDelay); err != nil {
		return status, err
	}
	return status, nil
}
