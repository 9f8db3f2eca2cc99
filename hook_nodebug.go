//go:build !maglev_debug
// +build !maglev_debug

package maglev

const debug = false

func assertPopulated(*lookup, uint64) {}
func setupTableTrace(*Table)          {}
