package telegram

// apiBaseURLForTest points apiBaseURL at url for the duration of a test and
// returns a func restoring the original value.
func apiBaseURLForTest(url string) func() {
	original := apiBaseURL
	apiBaseURL = url
	return func() { apiBaseURL = original }
}
