// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package t8contract_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8contract"
)

func TestViolationfPanicsWithViolation(t *testing.T) {
	t.Parallel()
	var v *t8contract.Violation
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			var ok bool
			v, ok = r.(*t8contract.Violation)
			require.True(t, ok, "panic value should be *t8contract.Violation, got %T", r)
		}()
		t8contract.Violationf("bad child id %d", 9)
	}()
	assert.Equal(t, "bad child id 9", v.Error())
}

func TestRecoverCapturesViolation(t *testing.T) {
	t.Parallel()
	var err error
	func() {
		defer t8contract.Recover(&err)
		t8contract.Violationf("stale index")
	}()
	require.Error(t, err)
	var v *t8contract.Violation
	assert.True(t, errors.As(err, &v))
}

func TestRecoverRepanicsOtherValues(t *testing.T) {
	t.Parallel()
	var err error
	assert.Panics(t, func() {
		defer t8contract.Recover(&err)
		panic("not a violation")
	})
}
