// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides table-driven operations on ASCII base sequences
// that the aligners run once per read, such as reverse-complementing.
package biosimd
