// Package docx edits OOXML word-processing packages in place.
//
// A package is a zip archive. Open locates the main document part through
// the package relationships, and PrependParagraph splices a new paragraph
// into that part at the byte offset of the first body paragraph. The rest of
// the part and every other archive entry are written back unchanged, so
// styles, numbering, media and relationships survive exactly.
package docx
