package docclass

// IsAvatarCandidate reports whether an image could serve as a profile picture.
func IsAvatarCandidate(f File) bool {
	if !IsImage(f.FileName) || f.IsCV {
		return false
	}
	if ShouldExclude(f).Excluded {
		return false
	}
	_, blocked := matchFirst(normalizeName(f.FileName), nonAvatarPatterns)
	return !blocked
}

// SelectAvatar picks the best profile picture from files: the first
// portrait-looking name, otherwise the first usable image.
func SelectAvatar(files []File) (File, bool) {
	var fallback *File
	for i := range files {
		f := files[i]
		if !IsAvatarCandidate(f) {
			continue
		}
		if _, ok := matchFirst(normalizeName(f.FileName), portraitPatterns); ok {
			return f, true
		}
		if fallback == nil {
			fallback = &files[i]
		}
	}
	if fallback == nil {
		return File{}, false
	}
	return *fallback, true
}
