package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/distribution/reference"
)

// ImageTag tags an image in the docker host. If target has no tag, the
// daemon applies "latest".
func (cli *Client) ImageTag(ctx context.Context, source, target string) error {
	source, err := trimID("image", source)
	if err != nil {
		return err
	}
	if _, err := reference.ParseAnyReference(source); err != nil {
		return errInvalidParameter(fmt.Errorf("error parsing reference: %q is not a valid repository/tag: %w", source, err))
	}

	ref, err := parseImageRef(target)
	if err != nil {
		return errInvalidParameter(fmt.Errorf("error parsing reference: %q is not a valid repository/tag: %w", target, err))
	}

	if _, ok := ref.(reference.Digested); ok {
		return errInvalidParameter(errors.New("refusing to create a tag with a digest reference"))
	}

	query := url.Values{}
	query.Set("repo", reference.FamiliarName(ref))
	if tagged, ok := ref.(reference.Tagged); ok {
		query.Set("tag", tagged.Tag())
	}

	resp, err := cli.post(ctx, "/images/"+source+"/tag", query, nil, nil)
	ensureReaderClosed(resp)
	return err
}
