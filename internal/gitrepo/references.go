package gitrepo

import (
	"fmt"
	"strings"
)

const (
	listingRecordSeparatorConstant        = "\n"
	listingFieldSeparatorConstant         = "\t"
	listingCarriageReturnConstant         = "\r"
	listingExpectedFieldCountConstant     = 2
	malformedListingErrorTemplateConstant = "malformed reference listing line %d: expected <commit>\\t<ref>, got %q"
)

// RemoteReference is one record of a remote reference listing.
type RemoteReference struct {
	CommitID      string
	ReferenceName string
}

// MalformedListingError reports a listing record that does not split into exactly two tab-separated fields.
type MalformedListingError struct {
	LineNumber int
	Line       string
}

// Error describes the offending record.
func (listingError MalformedListingError) Error() string {
	return fmt.Sprintf(malformedListingErrorTemplateConstant, listingError.LineNumber, listingError.Line)
}

// ParseRemoteReferences decodes `git ls-remote` output.
// Empty records are ignored; any other record must contain exactly one tab.
func ParseRemoteReferences(output string) ([]RemoteReference, error) {
	records := strings.Split(output, listingRecordSeparatorConstant)
	references := make([]RemoteReference, 0, len(records))
	for recordIndex, record := range records {
		record = strings.TrimSuffix(record, listingCarriageReturnConstant)
		if len(record) == 0 {
			continue
		}

		fields := strings.Split(record, listingFieldSeparatorConstant)
		if len(fields) != listingExpectedFieldCountConstant {
			return references, MalformedListingError{LineNumber: recordIndex + 1, Line: record}
		}

		references = append(references, RemoteReference{CommitID: fields[0], ReferenceName: fields[1]})
	}
	return references, nil
}
