// Package exifmeta resolves typed asset attributes from exiftool metadata.
//
// A Tree is the sparse group/tag/record structure exiftool prints with
// -j -l. The Resolver walks a fixed list of candidate tags per attribute and
// keeps the first value that converts; attributes nobody reported stay
// absent without failing the rest of the bundle.
package exifmeta
