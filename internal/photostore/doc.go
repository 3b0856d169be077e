// Package photostore saves repair photos and returns the URL recorded in the
// repair payload.
//
// Two backends exist: Local writes under paths.photo_dir and yields file://
// URLs, S3 uploads with the AWS SDK and yields either a public-domain URL or
// the regional bucket URL. New picks one from configuration.
package photostore
