package observability

/*
RemoteLoadFeedback is used to get feedback on part of the loading process.
In particular when we load teams and repositories of an organization.
It is mostly used for UX purposes (progress bar on plan and apply)
*/
type RemoteLoadFeedback interface {
	LoadingAsset(entity string, nb int)
}
