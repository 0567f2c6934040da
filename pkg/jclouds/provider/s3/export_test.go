package s3

// MapVerifyErrorForTest exposes mapVerifyError to the package tests.
var MapVerifyErrorForTest = mapVerifyError
