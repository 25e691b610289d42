package anilist

const mediaFragment = `
fragment media on Media {
  id
  type
  title { romaji english }
  description(asHtml: false)
  averageScore
  status
  startDate { year month day }
  endDate { year month day }
  episodes
  chapters
  coverImage { large }
  siteUrl
}`

const characterFragment = `
fragment character on Character {
  id
  name { full }
  description
  image { large }
  siteUrl
  media(perPage: 1) { nodes { title { romaji english } } }
}`

const searchMediaQuery = `
query ($search: String, $type: MediaType) {
  Media(search: $search, type: $type) { ...media }
}` + mediaFragment

const searchCharacterQuery = `
query ($search: String) {
  Character(search: $search) { ...character }
}` + characterFragment

const trendingQuery = `
query ($type: MediaType, $perPage: Int, $genre: String) {
  Page(perPage: $perPage) {
    media(type: $type, sort: TRENDING_DESC, genre: $genre) { ...media }
  }
}` + mediaFragment

const popularByYearQuery = `
query ($year: Int, $perPage: Int) {
  Page(perPage: $perPage) {
    media(type: ANIME, sort: POPULARITY_DESC, seasonYear: $year) { ...media }
  }
}` + mediaFragment

const topCharactersQuery = `
query ($perPage: Int) {
  Page(perPage: $perPage) {
    characters(sort: FAVOURITES_DESC) { ...character }
  }
}` + characterFragment

const recentReleasesQuery = `
query ($perPage: Int) {
  Page(perPage: $perPage) {
    media(type: ANIME, sort: START_DATE_DESC) { ...media }
  }
}` + mediaFragment

const mediaCharactersQuery = `
query ($id: Int, $perPage: Int) {
  Media(id: $id) {
    title { romaji english }
    characters(sort: RELEVANCE, perPage: $perPage) {
      nodes {
        id
        name { full }
        description
        image { large }
        siteUrl
      }
    }
  }
}`

const airingSchedulesQuery = `
query ($start: Int, $end: Int, $perPage: Int) {
  Page(perPage: $perPage) {
    airingSchedules(airingAt_greater: $start, airingAt_lesser: $end, sort: TIME) {
      airingAt
      episode
      media { ...media }
    }
  }
}` + mediaFragment
