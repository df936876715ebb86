package profile

import "errors"

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPhysicianNotFound    = errors.New("physician not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrSelfAssignment       = errors.New("a patient cannot be assigned to themself")
	ErrPhysicianHasPatients = errors.New("physician still has assigned patients")
	ErrPhysicianHasHistory  = errors.New("physician has conversations or attended illnesses")
)
