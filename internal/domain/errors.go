package domain

import "errors"

var (
	ErrSkillNotFound    = errors.New("skill not found")
	ErrInvalidSkillName = errors.New("invalid skill name")
	ErrReservedName     = errors.New("reserved artifact name")
	ErrNoDirectives     = errors.New("no directives in decision response")
	ErrEngineEmpty      = errors.New("empty engine response")
)
