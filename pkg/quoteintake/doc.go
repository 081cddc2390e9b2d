// Package quoteintake implements a contact/quote intake pipeline with
// capability-protected attachment downloads.
//
// A Submission is validated, its image attachments are written to an
// ObjectStore, one signed download link is minted per stored object (see
// package presigned), and the whole request is relayed to the business
// through an EmailSender. Retrieve is the other half: it checks a link's
// expiry and signature before handing back the stored object.
//
// Everything external is injected at construction:
//
//	svc, err := quoteintake.New(
//	    quoteintake.WithSettings(quoteintake.Settings{...}),
//	    quoteintake.WithObjectStore(store),
//	    quoteintake.WithEmailSender(sender),
//	)
//
// Missing configuration does not fail New. It is reported per request as a
// KindServerMisconfigured error, so a partially configured deployment still
// answers with structured errors.
package quoteintake
