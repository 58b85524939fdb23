package service

import "errors"

// Sentinel errors.
var (
	ErrLifecycle  = errors.New("service: cooldown lifecycle failed")
	ErrNoSource   = errors.New("service: no batch source configured")
	ErrInvalidRun = errors.New("service: invalid pass request")
)
