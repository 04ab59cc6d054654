package doku

import (
	"fmt"
	"maps"
)

// DeepMerge merges src into dst and returns dst. Where both sides hold a
// JSON object the merge recurses; any other value from src (scalars, arrays,
// mismatched types) replaces the value in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for key, incoming := range src {
		srcObj, srcIsObj := incoming.(map[string]any)
		dstObj, dstIsObj := dst[key].(map[string]any)

		if srcIsObj && dstIsObj {
			dst[key] = DeepMerge(dstObj, srcObj)

			continue
		}

		dst[key] = incoming
	}

	return dst
}

// MergeInto imports incoming into target. contextName from incoming is
// ignored so an import never renames the target context.
//
// If an imported field leaves a known field with the wrong shape (for
// example "todos" merged into a string) MergeInto returns [ErrInvalidImport]
// and target is left unchanged. Fields of target that already had the wrong
// shape and are not imported are carried over as they are.
func MergeInto(target *Document, incoming map[string]any) error {
	src := maps.Clone(incoming)
	delete(src, keyContextName)

	if len(src) == 0 {
		return nil
	}

	tree, err := target.Tree()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	merged, err := marshalNoEscape(DeepMerge(tree, src))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	doc, err := DecodeStoredDocument(merged)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	for key := range src {
		if doc.KeptVerbatim(key) {
			return fmt.Errorf("%w: %s has the wrong shape", ErrInvalidImport, key)
		}
	}

	doc.ContextName = target.ContextName
	doc.normalize()

	*target = *doc

	return nil
}

// RenameTag renames oldName to newName, maps it to newCategory and rewrites
// every occurrence in every item's tag list, keeping order and duplicates.
//
// Returns [ErrTagNotFound] if oldName is not in TagCategoryMap and
// [ErrTagExists] if newName differs from oldName and is already taken. The
// document is not modified when an error is returned.
func RenameTag(doc *Document, oldName, newName, newCategory string) error {
	if _, ok := doc.TagCategoryMap[oldName]; !ok {
		return fmt.Errorf("%w: %s", ErrTagNotFound, oldName)
	}

	if newName != oldName {
		if _, taken := doc.TagCategoryMap[newName]; taken {
			return fmt.Errorf("%w: %s", ErrTagExists, newName)
		}
	}

	delete(doc.TagCategoryMap, oldName)
	doc.TagCategoryMap[newName] = newCategory

	if newName == oldName {
		return nil
	}

	doc.EachTagList(func(tags []string) []string {
		for i, tag := range tags {
			if tag == oldName {
				tags[i] = newName
			}
		}

		return tags
	})

	return nil
}

// DeleteTag removes tagName from TagCategoryMap and from every item's tag
// list. Deleting a tag that does not exist is not an error.
func DeleteTag(doc *Document, tagName string) {
	delete(doc.TagCategoryMap, tagName)

	doc.EachTagList(func(tags []string) []string {
		kept := make([]string, 0, len(tags))

		for _, tag := range tags {
			if tag != tagName {
				kept = append(kept, tag)
			}
		}

		return kept
	})
}
