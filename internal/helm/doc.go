// Package helm installs OCI charts into a single kube context.
//
// Two backends are available: CLIInstaller shells out to the helm binary and
// SDKInstaller drives the helm v3 SDK in-process. Both take the same Release.
package helm
