package featureflag

type Flag string

const (
	// Keeps the fragment names produced by the splitter instead of
	// prefixing them with the name of the file they come from.
	FlagDisableFragmentNamespace Flag = "DISABLE_FRAGMENT_NAMESPACE"

	// Keeps the scratch directories of split files after their fragments are
	// moved.
	FlagKeepScratch Flag = "KEEP_SCRATCH"

	// Skips the point count verification of the output tiles.
	FlagDisableVerification Flag = "DISABLE_VERIFICATION"
)
