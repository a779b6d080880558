package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"github.com/PolarWolf314/kahu/internal/ui"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// reportedError marks an error whose message was already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail shows err as the spinner's final message and returns it marked as
// reported, so Execute only sets the exit code.
func fail(s *spinner.Spinner, err error) error {
	Logger.Errorf("%v", err)
	s.FinalMSG = describe(err)
	return &reportedError{err: err}
}

// report prints err to the command's output and returns it marked as
// reported.
func report(cmd *cobra.Command, err error) error {
	Logger.Errorf("%v", err)
	fmt.Fprintln(cmd.OutOrStdout(), describe(err))
	return &reportedError{err: err}
}

// describe turns an error into a user-facing message with a hint where one
// helps.
func describe(err error) string {
	var rle *kerrors.RateLimitError
	switch {
	case errors.As(err, &rle):
		var usage string
		if rle.Dimension == kerrors.DimensionSize {
			usage = ui.Bytes(rle.Current) + " of " + ui.Bytes(rle.Limit)
		} else {
			usage = fmt.Sprintf("%d of %d", rle.Current, rle.Limit)
		}
		return ui.Cross() + " Daily " + rle.Dimension + " limit reached " + ui.Muted.Sprint(usage+" used") + "\n" +
			ui.Arrow() + " Limits reset at midnight; see " + ui.Code.Sprint("kahu usage")
	case errors.Is(err, kerrors.ErrMissingConfig):
		return ui.Cross() + " " + err.Error() + "\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("kahu config init") + " first"
	case errors.Is(err, kerrors.ErrWrongPassphrase):
		return ui.Cross() + " Wrong passphrase for this account"
	case errors.Is(err, kerrors.ErrAlreadyShared):
		return ui.Cross() + " This file already has an active share\n" +
			ui.Arrow() + " Revoke it with " + ui.Code.Sprint("kahu unshare <share-id>") + " to share it again"
	case errors.Is(err, kerrors.ErrLimitReached):
		return ui.Cross() + " This share has reached its download limit"
	case errors.Is(err, kerrors.ErrShareExpired):
		return ui.Cross() + " This share has expired"
	case errors.Is(err, kerrors.ErrAccessDenied):
		return ui.Cross() + " Wrong passphrase for this share"
	case errors.Is(err, kerrors.ErrDecryptFailed):
		return ui.Cross() + " Could not decrypt: wrong passphrase or corrupted data"
	case errors.Is(err, kerrors.ErrShareNotFound):
		return ui.Cross() + " No such share"
	case errors.Is(err, kerrors.ErrFileNotFound):
		return ui.Cross() + " No such file"
	case errors.Is(err, kerrors.ErrFileExpired):
		return ui.Cross() + " This file has expired"
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Cross() + " " + err.Error()
	case errors.Is(err, kerrors.ErrStorage):
		return ui.Cross() + " The operation did not complete\n" +
			ui.Error.Sprint("Error: ") + err.Error()
	default:
		return ui.Cross() + " " + err.Error()
	}
}
