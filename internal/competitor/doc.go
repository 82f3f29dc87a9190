// Package competitor provides the record types shared by the scraper, the
// directory matcher and the results formatter.
//
// A Competitor is one row of a finished 10fastfingers competition. Numeric
// fields are pointers: a nil value means the ranking page cell was missing or
// could not be coerced, which is a normal outcome rather than an error.
package competitor
