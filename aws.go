// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package platesynth

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"rescribe.xyz/platesynth/internal/render"
)

// S3Sink uploads images as png files to an S3 bucket
type S3Sink struct {
	// these should be set before running Init(), or left to defaults
	Region string
	Bucket string
	Prefix string
	Logger *log.Logger

	sess     *session.Session
	uploader *s3manager.Uploader
}

// Init sets up the aws session and uploader
func (s *S3Sink) Init() error {
	if s.Region == "" {
		s.Region = defaultAwsRegion
	}
	if s.Bucket == "" {
		s.Bucket = storageSamples
	}
	if s.Logger == nil {
		s.Logger = log.New(os.Stdout, "", 0)
	}

	var err error
	s.sess, err = session.NewSession(&aws.Config{
		Region: aws.String(s.Region),
	})
	if err != nil {
		return errors.New(fmt.Sprintf("Failed to set up aws session: %s", err))
	}
	s.uploader = s3manager.NewUploader(s.sess)

	return nil
}

// key returns the object key an image is uploaded to
func (s *S3Sink) key(k string) string {
	return path.Join(s.Prefix, k)
}

// Save encodes img as a png and uploads it
func (s *S3Sink) Save(key string, img image.Image) error {
	if s.uploader == nil {
		return errors.New("S3Sink used before Init")
	}
	var b bytes.Buffer
	err := png.Encode(&b, img)
	if err != nil {
		return fmt.Errorf("Error encoding image %s: %v", key, err)
	}

	k := s.key(key)
	s.Logger.Println("Uploading", k)
	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(k),
		Body:        bytes.NewReader(b.Bytes()),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("Error uploading %s to %s: %v", k, s.Bucket, err)
	}
	return nil
}

// MultiSink saves each image to every one of its sinks in turn,
// stopping at the first error
type MultiSink []render.Sink

func (m MultiSink) Save(key string, img image.Image) error {
	for _, s := range m {
		err := s.Save(key, img)
		if err != nil {
			return err
		}
	}
	return nil
}
