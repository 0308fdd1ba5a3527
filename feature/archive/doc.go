// Package archive keeps copies of exports and replaced store files in object
// storage.
//
// Objects are laid out as <device>/<mode>/<kind>/<name>. After every upload
// the oldest objects of the same kind beyond storage.Config.Retain are
// removed. The archive is optional: when storage is disabled the exporter and
// importer simply skip it.
package archive
