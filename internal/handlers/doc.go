// Package handlers implements the front-end application API: uploads
// into the processing pipeline, media listing and administration
// through the persistence gateway, credential handling, pipeline
// notifications and thumbnail serving.
package handlers
