package scm

import "fmt"

// InvalidValueError reports a value outside the accepted set for Field.
type InvalidValueError struct {
	Field string
	Value string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("Invalid %s: %q.", e.Field, e.Value)
}

// ConditionalCheckFailedError reports a DynamoDB write whose condition did not hold.
type ConditionalCheckFailedError struct {
	Cause error
}

func (e ConditionalCheckFailedError) Error() string {
	return fmt.Sprintf("Condition on the 'id' attribute has failed: %v.", e.Cause)
}

// BuildingExpressionError reports a DynamoDB expression that could not be built.
type BuildingExpressionError struct {
	Cause error
}

func (e BuildingExpressionError) Error() string {
	return fmt.Sprintf("Failed to build expression: %v.", e.Cause)
}

// DynamoDBAPIError wraps any other failure returned by DynamoDB.
type DynamoDBAPIError struct {
	Cause error
}

func (e DynamoDBAPIError) Error() string {
	return fmt.Sprintf("Failed DynamoDB API: %v.", e.Cause)
}

// UnmarshalingAttributeError reports an item that could not be decoded.
type UnmarshalingAttributeError struct {
	Cause error
}

func (e UnmarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to unmarshal: %v.", e.Cause)
}

// MarshalingAttributeError reports a value that could not be encoded as an item.
type MarshalingAttributeError struct {
	Cause error
}

func (e MarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to marshal: %v.", e.Cause)
}

func (e ConditionalCheckFailedError) Unwrap() error { return e.Cause }
func (e BuildingExpressionError) Unwrap() error     { return e.Cause }
func (e DynamoDBAPIError) Unwrap() error            { return e.Cause }
func (e UnmarshalingAttributeError) Unwrap() error  { return e.Cause }
func (e MarshalingAttributeError) Unwrap() error    { return e.Cause }
