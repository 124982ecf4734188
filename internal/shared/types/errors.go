package types

import "errors"

var (
	ErrNoProfilesFound     = errors.New("no AWS profiles found. Please configure AWS CLI first")
	ErrProfileNotFound     = errors.New("the specified profile was not found in AWS configuration")
	ErrApplicationNotFound = errors.New("application function not found. Deploy the application before enrolling it")
	ErrNoCodePackage       = errors.New("no deployment package configured. Set code_file or code_s3_bucket/code_s3_key")
	ErrNoSubscribers       = errors.New("no subscriber emails configured for the reporting topic")
)
