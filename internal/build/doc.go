// Package build produces the deployable output directory: project files
// copied with relative imports rewritten to root-relative URLs, js and
// css emitted under content-hashed names, pages rewritten to reference
// them, and a manifest.json recording the mapping.
package build
